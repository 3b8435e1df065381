package github

// commentRequest is the body for the create-comment endpoint.
type commentRequest struct {
	Body string `json:"body"`
}

// labelsRequest is the body for the add-labels endpoint.
type labelsRequest struct {
	Labels []string `json:"labels"`
}

// apiError is the GitHub error envelope.
type apiError struct {
	Message string `json:"message"`
}
