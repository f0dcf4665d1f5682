package domain

// Labels carried by every workload pod. The run id label is how all
// cluster-side scoping works; selecting by app alone is never safe because
// terminating pods from a previous run may still match.
const (
	RunIdLabel = "run-id"
	AppLabel   = "app"

	ServerApp = "fl-server"
	ClientApp = "fl-client"
)
