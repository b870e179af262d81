package server

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"os"

	"github.com/alexedwards/flow"
	"github.com/gabriel-vasile/mimetype"
	"github.com/sirupsen/logrus"
)

const downloadTokenName = "download"

type downloadToken struct {
	RequestID string
	File      string
}

func (s *Service) encodeDownloadToken(requestID, file string) (string, error) {
	return s.tokens.Encode(downloadTokenName, downloadToken{RequestID: requestID, File: file})
}

func (s *Service) handleDownload(w http.ResponseWriter, r *http.Request) {
	var token downloadToken
	if err := s.tokens.Decode(downloadTokenName, flow.Param(r.Context(), "token"), &token); err != nil {
		s.logger.WithError(err).Debug("invalid or expired download token")
		http.NotFound(w, r)
		return
	}

	logger := s.logger.WithFields(logrus.Fields{
		"request_id": token.RequestID,
		"file":       token.File,
	})

	ws, err := s.workspaces.Open(token.RequestID)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	path, err := ws.File(token.File)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			http.NotFound(w, r)
			return
		}
		logger.WithError(err).Error("failed to open artifact")
		s.internalServerError(w)
		return
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		logger.WithError(err).Error("failed to stat artifact")
		s.internalServerError(w)
		return
	}

	mtype, err := mimetype.DetectReader(f)
	if err != nil {
		logger.WithError(err).Error("failed to detect artifact type")
		s.internalServerError(w)
		return
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		logger.WithError(err).Error("failed to rewind artifact")
		s.internalServerError(w)
		return
	}

	w.Header().Set("Content-Type", mtype.String())
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": token.File}))
	http.ServeContent(w, r, token.File, st.ModTime(), f)
}
