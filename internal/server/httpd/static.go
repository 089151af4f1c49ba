package httpd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/yndnr/rawhttpd/internal/protocol/http1"
)

// StaticConfig configures the static file surface.
type StaticConfig struct {
	// Root is the directory files are served from.
	Root string
	// Index is served for "/" and for paths ending in "/". A directory
	// requested without the trailing slash is not found.
	Index string
	// Restricted lists path fragments that require an active session.
	Restricted []string
}

// StaticHandler serves files below a root directory. Lookups go through
// os.Root, so no path can resolve outside the root.
type StaticHandler struct {
	root       *os.Root
	index      string
	restricted []string
}

// NewStaticHandler opens cfg.Root. The directory must exist.
func NewStaticHandler(cfg StaticConfig) (*StaticHandler, error) {
	root, err := os.OpenRoot(cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("open static root: %w", err)
	}
	index := cfg.Index
	if index == "" {
		index = "index.html"
	}
	return &StaticHandler{
		root:       root,
		index:      index,
		restricted: append([]string(nil), cfg.Restricted...),
	}, nil
}

// Close releases the root directory handle.
func (h *StaticHandler) Close() error {
	return h.root.Close()
}

// Handle implements Handler.
func (h *StaticHandler) Handle(_ context.Context, req *http1.Request, sess Session) (*http1.Response, error) {
	if req.Method != "GET" {
		return htmlError(http1.StatusMethodNotAllowed), nil
	}
	if h.isRestricted(req.Path) && !sess.Active {
		return htmlError(http1.StatusUnauthorized), nil
	}

	name := h.fileName(req.Path)
	body, err := h.read(name)
	if err != nil {
		return htmlError(http1.StatusNotFound), nil
	}

	contentType := mime.TypeByExtension(filepath.Ext(name))
	if contentType == "" {
		return htmlError(http1.StatusInternalServerError), nil
	}
	return http1.NewResponse().
		Header(http1.HeaderContentType, contentType).
		Body(body).
		Build(), nil
}

func (h *StaticHandler) isRestricted(p string) bool {
	for _, fragment := range h.restricted {
		if strings.Contains(p, fragment) {
			return true
		}
	}
	return false
}

// fileName maps a request path to a name relative to the root.
func (h *StaticHandler) fileName(p string) string {
	name := strings.TrimPrefix(path.Clean("/"+p), "/")
	if name == "" || strings.HasSuffix(p, "/") {
		return path.Join(name, h.index)
	}
	return name
}

var errIsDir = errors.New("is a directory")

func (h *StaticHandler) read(name string) ([]byte, error) {
	f, err := h.root.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, errIsDir
	}
	if info.Size() > http1.MaxBodySize {
		return nil, fmt.Errorf("%s: file too large to serve", name)
	}
	return io.ReadAll(f)
}

// htmlError renders the static surface's error page.
func htmlError(status int) *http1.Response {
	reason := http1.ReasonPhrase(status)
	page := fmt.Sprintf("<!DOCTYPE html>\n<html><head><title>%d %s</title></head>"+
		"<body><h1>%d %s</h1></body></html>\n", status, reason, status, reason)
	return http1.NewResponse().
		Status(status).
		Header(http1.HeaderContentType, http1.ContentTypeHTML).
		BodyString(page).
		Build()
}

func htmlInternalError() *http1.Response {
	return htmlError(http1.StatusInternalServerError)
}
