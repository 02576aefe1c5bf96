package httpclient

import (
	"context"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestMultipartBody_Stream(t *testing.T) {
	body := &MultipartBody{
		Fields: map[string]string{"language": "en"},
		Files: []FileField{{
			FieldName:   "file",
			FileName:    `chunk "0".mp3`,
			ContentType: "audio/mpeg",
			Reader:      strings.NewReader("ID3audio"),
		}},
	}
	r, ct := body.stream()

	mediaType, params, err := mime.ParseMediaType(ct)
	if err != nil || mediaType != "multipart/form-data" {
		t.Fatalf("content type %q: %v", ct, err)
	}

	mr := multipart.NewReader(r, params["boundary"])
	got := map[string]string{}
	var fileName, fileType string
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("NextPart: %v", err)
		}
		data, _ := io.ReadAll(part)
		got[part.FormName()] = string(data)
		if part.FormName() == "file" {
			fileName = part.FileName()
			fileType = part.Header.Get("Content-Type")
		}
	}

	if got["language"] != "en" {
		t.Errorf("language = %q", got["language"])
	}
	if got["file"] != "ID3audio" {
		t.Errorf("file = %q", got["file"])
	}
	if fileName != `chunk "0".mp3` {
		t.Errorf("filename = %q", fileName)
	}
	if fileType != "audio/mpeg" {
		t.Errorf("content type = %q", fileType)
	}
}

func TestMultipartBody_DefaultContentType(t *testing.T) {
	body := &MultipartBody{Files: []FileField{{FieldName: "file", FileName: "a.bin", Reader: strings.NewReader("x")}}}
	r, ct := body.stream()
	_, params, _ := mime.ParseMediaType(ct)
	part, err := multipart.NewReader(r, params["boundary"]).NextPart()
	if err != nil {
		t.Fatal(err)
	}
	if got := part.Header.Get("Content-Type"); got != "application/octet-stream" {
		t.Errorf("content type = %q", got)
	}
	_, _ = io.Copy(io.Discard, r)
}

func TestClient_Do_Multipart(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		f, hdr, err := r.FormFile("file")
		if err != nil {
			t.Errorf("form file: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		data, _ := io.ReadAll(f)
		_, _ = w.Write([]byte(hdr.Filename + ":" + string(data)))
	}))
	defer srv.Close()

	c, err := New(Config{BaseURL: srv.URL})
	if err != nil {
		t.Fatal(err)
	}
	resp, err := c.Do(context.Background(), Request{
		Method: http.MethodPost,
		Path:   "/transcribe",
		Body: &MultipartBody{Files: []FileField{{
			FieldName: "file",
			FileName:  "chunk_000.mp3",
			Reader:    strings.NewReader("audio-bytes"),
		}}},
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if string(resp.Body) != "chunk_000.mp3:audio-bytes" {
		t.Errorf("body = %q", resp.Body)
	}
}
