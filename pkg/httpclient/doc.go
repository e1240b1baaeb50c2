// Package httpclient provides a typed Go client for the LMS REST API,
// including the resumable chunked video upload protocol.
//
// Create a client with:
//
//	client, err := httpclient.New("http://localhost:8080/api/lms")
//	if err != nil {
//	   panic(err)
//	}
//
// Then upload a video in resumable chunks:
//
//	video, err := client.UploadVideo(ctx, file, size)
package httpclient
