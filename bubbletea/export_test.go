package bubbletea

// RenderContent exports renderContent for testing.
func RenderContent(m Model) string {
	return m.renderContent()
}

// SignInError exports signInError for testing.
func SignInError(err error) string {
	return signInError(err)
}
