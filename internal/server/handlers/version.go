package handlers

import (
	"net/http"
	"runtime"

	"github.com/fulmenhq/gofulmen/appidentity"
	"github.com/fulmenhq/gofulmen/crucible"
)

// BuildInfo is stamped into the binary at link time.
type BuildInfo struct {
	Version   string
	Commit    string
	BuildDate string
}

// VersionResponse is the /version payload.
type VersionResponse struct {
	App          AppInfo       `json:"app"`
	Admission    AdmissionInfo `json:"admission"`
	Dependencies DepInfo       `json:"dependencies"`
	Runtime      RuntimeInfo   `json:"runtime"`
}

type AppInfo struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	Commit    string `json:"git_commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
}

// AdmissionInfo advertises the active quota policy.
type AdmissionInfo struct {
	Limit  int    `json:"limit"`
	Window string `json:"window"`
}

type DepInfo struct {
	Gofulmen string `json:"gofulmen"`
	Crucible string `json:"crucible"`
}

type RuntimeInfo struct {
	Platform      string `json:"platform"`
	NumCPU        int    `json:"num_cpu"`
	NumGoroutines int    `json:"num_goroutines"`
}

// VersionHandler returns a handler describing the running build.
// identity and tracker may be nil.
func VersionHandler(identity *appidentity.Identity, build BuildInfo, tracker AdmissionTracker) http.HandlerFunc {
	name := "pixelgate"
	if identity != nil && identity.BinaryName != "" {
		name = identity.BinaryName
	}

	return func(w http.ResponseWriter, r *http.Request) {
		deps := crucible.GetVersion()
		resp := VersionResponse{
			App: AppInfo{
				Name:      name,
				Version:   build.Version,
				Commit:    build.Commit,
				BuildDate: build.BuildDate,
				GoVersion: runtime.Version(),
			},
			Dependencies: DepInfo{Gofulmen: deps.Gofulmen, Crucible: deps.Crucible},
			Runtime: RuntimeInfo{
				Platform:      runtime.GOOS + "/" + runtime.GOARCH,
				NumCPU:        runtime.NumCPU(),
				NumGoroutines: runtime.NumGoroutine(),
			},
		}
		if tracker != nil {
			resp.Admission = AdmissionInfo{Limit: tracker.Limit(), Window: tracker.Window().String()}
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
