package session

// CloseEpisodeLog closes the log of the current episode while leaving the
// session active.
func CloseEpisodeLog(s *Session) error {
	return s.log.Close()
}
