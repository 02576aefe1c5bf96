// Package httpclient is the small HTTP layer used by the direct URL fetcher
// and the self-hosted transcription provider.
//
// Responses with a non-2xx status come back as *Error, classified by status
// code so callers can map them onto their own failure taxonomy:
//
//	client, _ := httpclient.New(httpclient.Config{
//	    BaseURL: "http://whisper:9000",
//	    Timeout: 5 * time.Minute,
//	    Auth:    httpclient.BearerAuth(token),
//	})
//
//	resp, err := client.Do(ctx, httpclient.Request{
//	    Method: http.MethodPost,
//	    Path:   "/transcribe",
//	    Body:   &httpclient.MultipartBody{Files: []httpclient.FileField{...}},
//	})
//
// Large downloads use DoStream, which leaves the body unread.
package httpclient
