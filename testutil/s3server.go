package testutil

import (
	"bufio"
	"bytes"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"
)

// S3Server is an in-memory S3-compatible endpoint with path-style
// addressing. It covers the object calls the storage backends make and
// bucket creation. Signatures are not checked.
type S3Server struct {
	srv *httptest.Server

	mu      sync.Mutex
	buckets map[string]map[string]s3Object
}

type s3Object struct {
	data        []byte
	contentType string
	modified    time.Time
}

// NewS3Server starts a server holding the given empty buckets. It is closed
// when the test ends.
func NewS3Server(t testing.TB, buckets ...string) *S3Server {
	t.Helper()
	s := &S3Server{buckets: make(map[string]map[string]s3Object)}
	for _, b := range buckets {
		s.buckets[b] = make(map[string]s3Object)
	}
	s.srv = httptest.NewServer(http.HandlerFunc(s.serve))
	t.Cleanup(s.srv.Close)
	return s
}

// URL returns the endpoint with its scheme, as the AWS SDK expects it.
func (s *S3Server) URL() string { return s.srv.URL }

// Host returns host:port, as the MinIO client expects it.
func (s *S3Server) Host() string { return strings.TrimPrefix(s.srv.URL, "http://") }

// HasBucket reports whether bucket exists.
func (s *S3Server) HasBucket(bucket string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.buckets[bucket]
	return ok
}

// Object returns the stored body and content type of bucket/key.
func (s *S3Server) Object(bucket, key string) ([]byte, string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	obj, ok := s.buckets[bucket][key]
	return obj.data, obj.contentType, ok
}

func (s *S3Server) serve(w http.ResponseWriter, r *http.Request) {
	bucket, key, _ := strings.Cut(strings.TrimPrefix(r.URL.Path, "/"), "/")

	s.mu.Lock()
	defer s.mu.Unlock()

	objects, ok := s.buckets[bucket]
	if key == "" {
		s.serveBucket(w, r, bucket, ok)
		return
	}
	if !ok {
		s3Error(w, r, http.StatusNotFound, "NoSuchBucket")
		return
	}

	switch r.Method {
	case http.MethodPut:
		data, err := readS3Body(r)
		if err != nil {
			s3Error(w, r, http.StatusBadRequest, "IncompleteBody")
			return
		}
		objects[key] = s3Object{data: data, contentType: r.Header.Get("Content-Type"), modified: time.Now().UTC()}
		w.Header().Set("ETag", etag(data))
		w.WriteHeader(http.StatusOK)
	case http.MethodGet, http.MethodHead:
		obj, found := objects[key]
		if !found {
			s3Error(w, r, http.StatusNotFound, "NoSuchKey")
			return
		}
		h := w.Header()
		h.Set("Content-Length", strconv.Itoa(len(obj.data)))
		h.Set("Content-Type", obj.contentType)
		h.Set("ETag", etag(obj.data))
		h.Set("Last-Modified", obj.modified.Format(http.TimeFormat))
		w.WriteHeader(http.StatusOK)
		if r.Method == http.MethodGet {
			_, _ = w.Write(obj.data)
		}
	case http.MethodDelete:
		delete(objects, key)
		w.WriteHeader(http.StatusNoContent)
	default:
		s3Error(w, r, http.StatusMethodNotAllowed, "MethodNotAllowed")
	}
}

func (s *S3Server) serveBucket(w http.ResponseWriter, r *http.Request, bucket string, exists bool) {
	switch r.Method {
	case http.MethodHead:
		if !exists {
			s3Error(w, r, http.StatusNotFound, "NoSuchBucket")
			return
		}
		w.WriteHeader(http.StatusOK)
	case http.MethodPut:
		if exists {
			s3Error(w, r, http.StatusConflict, "BucketAlreadyOwnedByYou")
			return
		}
		_, _ = io.Copy(io.Discard, r.Body)
		s.buckets[bucket] = make(map[string]s3Object)
		w.WriteHeader(http.StatusOK)
	default:
		s3Error(w, r, http.StatusMethodNotAllowed, "MethodNotAllowed")
	}
}

// readS3Body returns the payload of a PUT, removing aws-chunked framing
// when the client used a streaming signature.
func readS3Body(r *http.Request) ([]byte, error) {
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}
	if !strings.HasPrefix(r.Header.Get("X-Amz-Content-Sha256"), "STREAMING-") &&
		!strings.Contains(r.Header.Get("Content-Encoding"), "aws-chunked") {
		return raw, nil
	}

	var out bytes.Buffer
	br := bufio.NewReader(bytes.NewReader(raw))
	for {
		line, err := br.ReadString('\n')
		if err != nil {
			return nil, fmt.Errorf("chunk header: %w", err)
		}
		sizeHex, _, _ := strings.Cut(strings.TrimSpace(line), ";")
		size, err := strconv.ParseInt(sizeHex, 16, 64)
		if err != nil {
			return nil, fmt.Errorf("chunk size %q: %w", sizeHex, err)
		}
		if size == 0 {
			return out.Bytes(), nil
		}
		if _, err := io.CopyN(&out, br, size); err != nil {
			return nil, fmt.Errorf("chunk body: %w", err)
		}
		if _, err := br.Discard(2); err != nil {
			return nil, fmt.Errorf("chunk trailer: %w", err)
		}
	}
}

func s3Error(w http.ResponseWriter, r *http.Request, status int, code string) {
	if r.Method == http.MethodHead {
		w.WriteHeader(status)
		return
	}
	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(status)
	fmt.Fprintf(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>%s</Code><Message>%s</Message><Resource>%s</Resource><RequestId>test</RequestId></Error>`,
		code, code, r.URL.Path)
}

func etag(data []byte) string {
	sum := md5.Sum(data)
	return `"` + hex.EncodeToString(sum[:]) + `"`
}
