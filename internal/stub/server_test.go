package stub

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/mark3labs/signup/internal/form"
	"github.com/stretchr/testify/require"
)

type part struct {
	name, filename string
	content        []byte
}

func pngImage(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 2, 2))))
	return buf.Bytes()
}

func multipartRequest(t *testing.T, values map[string]string, files ...part) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range values {
		require.NoError(t, w.WriteField(k, v))
	}
	for _, f := range files {
		fw, err := w.CreateFormFile(f.name, f.filename)
		require.NoError(t, err)
		_, err = fw.Write(f.content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/register", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func validValues() map[string]string {
	return map[string]string{
		form.FieldEmail:                "grace@example.com",
		form.FieldUsername:             "grace",
		form.FieldPassword:             "cobol4ever",
		form.FieldPasswordConfirmation: "cobol4ever",
		form.FieldFirstName:            "Grace",
		form.FieldLastName:             "Hopper",
		form.FieldContactNo:            "555-0123",
		form.FieldAlternateContactNo:   "",
	}
}

func validFiles(t *testing.T) []part {
	img := pngImage(t)
	return []part{
		{form.FieldPhoto, "photo.png", img},
		{form.FieldSignaturePhoto, "sig.png", img},
	}
}

type errorBody struct {
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors"`
}

func TestRegister_Success(t *testing.T) {
	t.Parallel()

	s := New()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, multipartRequest(t, validValues(), validFiles(t)...))

	require.Equal(t, http.StatusCreated, rec.Code)

	var acct Account
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &acct))
	require.NotEmpty(t, acct.ID)
	require.Equal(t, "grace", acct.Username)
	require.NotContains(t, rec.Body.String(), "cobol4ever")

	stored, ok := s.Lookup("GRACE")
	require.True(t, ok)
	require.True(t, stored.CheckPassword("cobol4ever"))
	require.False(t, stored.CheckPassword("wrong"))
	require.Equal(t, 1, s.Accounts())
}

func TestRegister_FieldErrors(t *testing.T) {
	t.Parallel()

	values := validValues()
	values[form.FieldEmail] = "not-an-email"
	values[form.FieldPasswordConfirmation] = "different"
	delete(values, form.FieldFirstName)

	s := New()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, multipartRequest(t, values,
		part{form.FieldPhoto, "photo.txt", []byte("plain text, not an image")},
	))

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, map[string][]string{
		form.FieldEmail:          {"The email must be a valid email address."},
		form.FieldPassword:       {"The password confirmation does not match."},
		form.FieldFirstName:      {"The first name field is required."},
		form.FieldPhoto:          {"The photo must be an image."},
		form.FieldSignaturePhoto: {"The signature photo field is required."},
	}, body.Errors)
	require.Equal(t, "The email must be a valid email address. (and 4 more errors)", body.Message)
	require.Equal(t, 0, s.Accounts())
}

func TestRegister_DuplicateIsCaseInsensitive(t *testing.T) {
	t.Parallel()

	s := New()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, multipartRequest(t, validValues(), validFiles(t)...))
	require.Equal(t, http.StatusCreated, rec.Code)

	values := validValues()
	values[form.FieldEmail] = "GRACE@example.com"
	values[form.FieldUsername] = "Grace"

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, multipartRequest(t, values, validFiles(t)...))
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, []string{"The email has already been taken."}, body.Errors[form.FieldEmail])
	require.Equal(t, []string{"The username has already been taken."}, body.Errors[form.FieldUsername])
}

func TestRegister_NotMultipart(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodPost, "/api/register", bytes.NewBufferString(`{"email":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	New().Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Empty(t, body.Errors)
}

func TestGetAccount(t *testing.T) {
	t.Parallel()

	s := New()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/accounts/grace", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, multipartRequest(t, validValues(), validFiles(t)...))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/accounts/grace", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"username":"grace"`)
}

func TestStartStop(t *testing.T) {
	t.Parallel()

	s := New()
	addr, err := s.Start("127.0.0.1:0")
	require.NoError(t, err)

	resp, err := http.Get("http://" + addr + "/api/accounts/nobody")
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
}

func TestRegister_BodyTooLarge(t *testing.T) {
	t.Parallel()

	s := New()
	big := make([]byte, maxRequestBytes+1)
	copy(big, pngImage(t))
	req := multipartRequest(t, validValues(),
		part{form.FieldPhoto, "photo.png", big},
		part{form.FieldSignaturePhoto, "sig.png", pngImage(t)},
	)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	require.Zero(t, s.Accounts())
}

func TestRegister_RemovesSpilledUploads(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("TMPDIR", tmp)

	s := New()
	photo := make([]byte, maxUploadMemory+1<<20)
	copy(photo, pngImage(t))
	req := multipartRequest(t, validValues(),
		part{form.FieldPhoto, "photo.png", photo},
		part{form.FieldSignaturePhoto, "sig.png", pngImage(t)},
	)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	entries, err := os.ReadDir(tmp)
	require.NoError(t, err)
	require.Empty(t, entries, "multipart temp files are removed after the request")
}
