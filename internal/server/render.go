package server

import "net/http"

func (s *Service) renderTemplate(w http.ResponseWriter, status int, templateName string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)

	if err := s.templates.ExecuteTemplate(w, templateName, data); err != nil {
		s.logger.WithError(err).WithField("template", templateName).Error("failed to render template")
	}
}
