// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"github.com/dalemusser/mychessstyle/internal/app/analysisapi"
	"github.com/dalemusser/mychessstyle/internal/app/system/pending"
	"github.com/dalemusser/mychessstyle/internal/app/system/ratelimit"
)

// DBDeps holds the back-end dependencies for the app. The front-end keeps no
// database of its own: its backend is the analysis server, plus the
// in-process state shared by all requests.
type DBDeps struct {
	Analysis *analysisapi.Client

	// In-flight submissions per browser session.
	Pending *pending.Registry

	// Per-IP throttle on analysis submissions.
	Submit *ratelimit.SubmitLimiter
}
