package forums3

import (
	"context"
	"encoding/xml"
	"errors"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"git.hoosierptk.dev/forums/forums/src/jobs"
	"github.com/rs/zerolog"
)

/*
A tiny S3 stand-in for local development. It understands just enough of the
protocol for avatar uploads: creating and checking buckets, and putting and
getting objects. Objects are stored as plain files under the storage folder,
one directory per bucket.
*/

type server struct {
	root   string
	logger *zerolog.Logger
}

func NewHandler(root string, logger *zerolog.Logger) http.Handler {
	return &server{root: root, logger: logger}
}

// Start runs the server on addr until the returned job is canceled.
func Start(addr, root string) (*jobs.Job, error) {
	if err := os.MkdirAll(root, fs.ModePerm); err != nil {
		return nil, err
	}

	job := jobs.New("forums3")
	srv := &http.Server{
		Addr:    addr,
		Handler: NewHandler(root, &job.Logger),
	}

	go func() {
		defer job.Finish()
		job.Logger.Info().Str("addr", addr).Str("root", root).Msg("Serving local S3")

		go func() {
			<-job.Canceled()
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			srv.Shutdown(ctx)
		}()

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			job.Logger.Error().Err(err).Msg("local S3 server stopped")
		}
	}()

	return job, nil
}

type s3Error struct {
	XMLName  xml.Name `xml:"Error"`
	Code     string   `xml:"Code"`
	Message  string   `xml:"Message"`
	Resource string   `xml:"Resource"`
}

func writeError(w http.ResponseWriter, status int, code, message, resource string) {
	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(status)
	io.WriteString(w, xml.Header)
	xml.NewEncoder(w).Encode(s3Error{Code: code, Message: message, Resource: resource})
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	bucket, key, ok := bucketKey(r.URL.Path)
	s.logger.Debug().Str("method", r.Method).Str("bucket", bucket).Str("key", key).Msg("S3 request")
	if !ok {
		writeError(w, http.StatusBadRequest, "InvalidURI", "Couldn't parse the specified URI.", r.URL.Path)
		return
	}

	bucketDir := filepath.Join(s.root, bucket)
	bucketExists := isDir(bucketDir)

	if key == "" {
		switch r.Method {
		case http.MethodPut:
			if err := os.MkdirAll(bucketDir, fs.ModePerm); err != nil {
				s.internalError(w, err)
				return
			}
			w.Header().Set("Location", "/"+bucket)
			w.WriteHeader(http.StatusOK)
		case http.MethodHead, http.MethodGet:
			if !bucketExists {
				writeError(w, http.StatusNotFound, "NoSuchBucket", "The specified bucket does not exist", bucket)
				return
			}
			w.WriteHeader(http.StatusOK)
		default:
			writeError(w, http.StatusMethodNotAllowed, "MethodNotAllowed", "The specified method is not allowed against this resource.", bucket)
		}
		return
	}

	if !bucketExists {
		writeError(w, http.StatusNotFound, "NoSuchBucket", "The specified bucket does not exist", bucket)
		return
	}
	objectPath := filepath.Join(bucketDir, key)

	switch r.Method {
	case http.MethodPut:
		body, err := io.ReadAll(r.Body)
		if err != nil {
			s.internalError(w, err)
			return
		}
		if err := os.WriteFile(objectPath, body, 0644); err != nil {
			s.internalError(w, err)
			return
		}
		if ct := r.Header.Get("Content-Type"); ct != "" {
			os.WriteFile(objectPath+contentTypeSuffix, []byte(ct), 0644)
		}
		w.WriteHeader(http.StatusOK)
	case http.MethodGet, http.MethodHead:
		f, err := os.Open(objectPath)
		if err != nil {
			writeError(w, http.StatusNotFound, "NoSuchKey", "The specified key does not exist.", key)
			return
		}
		defer f.Close()
		if ct, err := os.ReadFile(objectPath + contentTypeSuffix); err == nil {
			w.Header().Set("Content-Type", string(ct))
		}
		stat, err := f.Stat()
		if err != nil {
			s.internalError(w, err)
			return
		}
		http.ServeContent(w, r, key, stat.ModTime(), f)
	default:
		writeError(w, http.StatusMethodNotAllowed, "MethodNotAllowed", "The specified method is not allowed against this resource.", key)
	}
}

func (s *server) internalError(w http.ResponseWriter, err error) {
	s.logger.Error().Err(err).Msg("local S3 request failed")
	writeError(w, http.StatusInternalServerError, "InternalError", err.Error(), "")
}

const contentTypeSuffix = ".content-type"

// bucketKey splits a path-style S3 URL into bucket and key. Slashes in the key
// are flattened so every object lives directly in its bucket directory.
func bucketKey(urlPath string) (bucket, key string, ok bool) {
	p := strings.TrimPrefix(urlPath, "/")
	slashIdx := strings.IndexByte(p, '/')
	if slashIdx == -1 {
		bucket = p
	} else {
		bucket = p[:slashIdx]
		key = strings.ReplaceAll(p[slashIdx+1:], "/", "~")
	}

	if bucket == "" || bucket == "." || bucket == ".." || strings.ContainsAny(bucket, `\`) {
		return "", "", false
	}
	if key == "." || key == ".." || strings.Contains(key, `\`) || strings.HasSuffix(key, contentTypeSuffix) {
		return "", "", false
	}
	return bucket, key, true
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
