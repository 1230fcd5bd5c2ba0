package certificate

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/hellocert/internal/certificate"
)

type fakeService struct {
	issueErr error
	verdict  certificate.Verdict
	png      []byte
	fetchErr error

	gotReq    certificate.Request
	gotUpload []byte
}

func (f *fakeService) Issue(_ context.Context, _ string, req certificate.Request) (*certificate.Artifact, error) {
	f.gotReq = req
	if f.issueErr != nil {
		return nil, f.issueErr
	}
	return &certificate.Artifact{}, nil
}

func (f *fakeService) Verify(_ context.Context, _ string, upload []byte) certificate.Verdict {
	f.gotUpload = upload
	return f.verdict
}

func (f *fakeService) Fetch(context.Context, string) ([]byte, error) {
	return f.png, f.fetchErr
}

func postForm(c *Controller, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/creation", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	c.Create(rec, req)
	return rec
}

func postImage(t *testing.T, c *Controller, field string, data []byte) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	mpw := multipart.NewWriter(&body)
	fw, err := mpw.CreateFormFile(field, "cert.png")
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, mpw.Close())

	req := httptest.NewRequest(http.MethodPost, "/verification", &body)
	req.Header.Set("Content-Type", mpw.FormDataContentType())
	rec := httptest.NewRecorder()
	c.Verify(rec, req)
	return rec
}

func TestCreate(t *testing.T) {
	svc := &fakeService{}
	rec := postForm(NewController(svc, 0), url.Values{FieldIdentity: {"Alice"}, FieldTitle: {"Security101"}})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, RespIssued, rec.Body.String())
	assert.Equal(t, certificate.Request{Identity: "Alice", Title: "Security101"}, svc.gotReq)
}

func TestCreateMissingField(t *testing.T) {
	rec := postForm(NewController(&fakeService{}, 0), url.Values{FieldIdentity: {"Alice"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "MISSING_FIELDS")
}

func TestCreateErrorMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{fmt.Errorf("build: %w", certificate.ErrInvalidInput), http.StatusBadRequest},
		{errors.Join(certificate.ErrTimestampUnavailable, certificate.ErrTimeout), http.StatusGatewayTimeout},
		{fmt.Errorf("tsa: %w", certificate.ErrTimestampUnavailable), http.StatusServiceUnavailable},
		{fmt.Errorf("persist: %w", certificate.ErrPersistenceFailure), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(certificate.KindOf(tc.err), func(t *testing.T) {
			rec := postForm(NewController(&fakeService{issueErr: tc.err}, 0),
				url.Values{FieldIdentity: {"a"}, FieldTitle: {"b"}})
			assert.Equal(t, tc.status, rec.Code)
		})
	}
}

func TestVerifyResponses(t *testing.T) {
	svc := &fakeService{verdict: certificate.Verdict{Valid: true}}
	c := NewController(svc, 1<<20)

	rec := postImage(t, c, FieldImage, []byte("png-bytes"))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, RespCertified, rec.Body.String())
	assert.Equal(t, []byte("png-bytes"), svc.gotUpload)

	svc.verdict = certificate.Verdict{Reason: certificate.ReasonSignatureMismatch}
	rec = postImage(t, c, FieldImage, []byte("png-bytes"))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, RespErroneous, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), string(certificate.ReasonSignatureMismatch))
}

func TestVerifyRejectsMissingAndOversize(t *testing.T) {
	c := NewController(&fakeService{}, 16)

	rec := postImage(t, c, "file", []byte("x"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postImage(t, c, FieldImage, bytes.Repeat([]byte("x"), 1024))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestFetch(t *testing.T) {
	svc := &fakeService{png: []byte{0x89, 'P', 'N', 'G'}}
	c := NewController(svc, 0)

	rec := httptest.NewRecorder()
	c.Fetch(rec, httptest.NewRequest(http.MethodGet, "/fond", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, svc.png, rec.Body.Bytes())

	svc.png, svc.fetchErr = nil, certificate.ErrNotSubmitted
	rec = httptest.NewRecorder()
	c.Fetch(rec, httptest.NewRequest(http.MethodGet, "/fond", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, RespNotSubmitted, rec.Body.String())
}
