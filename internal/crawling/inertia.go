package crawling

import "github.com/jonathan/magang-agent/internal/types"

// Inertia request headers. Subsequent listing and detail requests must carry
// the version token obtained at bootstrap or the server answers with the
// HTML shell instead of JSON.
const (
	headerInertia        = "X-Inertia"
	headerInertiaVersion = "X-Inertia-Version"
)

// paginated is the Laravel-style paginator embedded in listing responses.
type paginated struct {
	LastPage int                    `json:"last_page"`
	Data     []types.ListingSummary `json:"data"`
}

// listingEnvelope is the Inertia page object of a listing response, either
// embedded in the bootstrap HTML or returned directly as JSON.
type listingEnvelope struct {
	Version string `json:"version"`
	Props   struct {
		Data paginated `json:"data"`
	} `json:"props"`
}

// detailEnvelope is the Inertia page object of a detail response.
type detailEnvelope struct {
	Props types.DetailPayload `json:"props"`
}
