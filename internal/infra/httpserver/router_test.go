package httpserver

import (
    "bytes"
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "image"
    "image/color"
    "image/png"
    "mime/multipart"
    "net/http"
    "net/http/httptest"
    "testing"
    "time"

    "github.com/rs/zerolog"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    ocrapp "github.com/bryanwahyu/spamshot/internal/application/ocr"
    appscreens "github.com/bryanwahyu/spamshot/internal/application/screenshots"
    domain "github.com/bryanwahyu/spamshot/internal/domain/screenshots"
    "github.com/bryanwahyu/spamshot/internal/infra/db/sqlite"
    "github.com/bryanwahyu/spamshot/internal/infra/db/sqlstore"
    "github.com/bryanwahyu/spamshot/internal/infra/imageproc"
    "github.com/bryanwahyu/spamshot/internal/middleware"
)

type tokens map[string]middleware.Principal

func (t tokens) Verify(raw string) (middleware.Principal, error) {
    p, found := t[raw]
    if !found {
        return middleware.Principal{}, errors.New("unknown token")
    }
    return p, nil
}

type blobs struct{}

func (blobs) Put(_ context.Context, key string, _ []byte, _ string) (string, error) {
    return "http://blob.local/" + key, nil
}

type fixedText string

func (f fixedText) Extract(context.Context, []byte, []byte) ocrapp.Result {
    return ocrapp.Result{Text: string(f), Attempts: []ocrapp.Report{{Source: ocrapp.SourceOriginal, Mode: "block", Length: len(f)}}}
}

const adminKey = "admin-secret"

func newServer(t *testing.T, text string) *httptest.Server {
    t.Helper()
    db, err := sqlite.Open(context.Background(), ":memory:")
    require.NoError(t, err)
    t.Cleanup(func() { db.Close() })

    svc := &appscreens.Service{
        Repo:        sqlstore.NewScreenshotRepository(db, sqlstore.SQLite),
        Blobs:       blobs{},
        OCR:         fixedText(text),
        Compression: imageproc.DefaultOptions(),
        Log:         zerolog.Nop(),
    }
    h := NewRouter(Options{
        Screenshots: svc,
        Verifier: tokens{
            "ani":  {ID: "u1", Email: "ani@x.io", Name: "Ani", Role: middleware.RoleUser},
            "budi": {ID: "u2", Email: "budi@x.io", Name: "Budi", Role: middleware.RoleUser},
        },
        AdminKeys:      []string{adminKey},
        MaxUploadBytes: 1 << 20,
        DebugEnv:       map[string]any{"engine": "fake"},
        Log:            zerolog.Nop(),
    })
    srv := httptest.NewServer(h)
    t.Cleanup(srv.Close)
    return srv
}

func pngBytes(t *testing.T) []byte {
    t.Helper()
    img := image.NewNRGBA(image.Rect(0, 0, 48, 24))
    for y := 0; y < 24; y++ {
        for x := 0; x < 48; x++ {
            img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 5), G: 90, B: uint8(y * 10), A: 255})
        }
    }
    var buf bytes.Buffer
    require.NoError(t, png.Encode(&buf, img))
    return buf.Bytes()
}

func uploadRequest(t *testing.T, url, token, field string, file []byte, fields map[string]string) *http.Request {
    t.Helper()
    var body bytes.Buffer
    mw := multipart.NewWriter(&body)
    if file != nil {
        fw, err := mw.CreateFormFile(field, "shot.png")
        require.NoError(t, err)
        _, err = fw.Write(file)
        require.NoError(t, err)
    }
    for k, v := range fields {
        require.NoError(t, mw.WriteField(k, v))
    }
    require.NoError(t, mw.Close())

    req, err := http.NewRequest(http.MethodPost, url, &body)
    require.NoError(t, err)
    req.Header.Set("Content-Type", mw.FormDataContentType())
    if token != "" {
        req.Header.Set("Authorization", "Bearer "+token)
    }
    return req
}

type envelope struct {
    Success bool            `json:"success"`
    Error   string          `json:"error"`
    Data    json.RawMessage `json:"data"`
    Debug   map[string]any  `json:"debug"`
    Page    int             `json:"page"`
    Limit   int             `json:"limit"`
    Total   int64           `json:"total"`
}

func do(t *testing.T, req *http.Request) (int, envelope) {
    t.Helper()
    resp, err := http.DefaultClient.Do(req)
    require.NoError(t, err)
    defer resp.Body.Close()
    var env envelope
    require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
    return resp.StatusCode, env
}

func call(t *testing.T, method, url, token string, admin bool) (int, envelope) {
    t.Helper()
    req, err := http.NewRequest(method, url, nil)
    require.NoError(t, err)
    if token != "" {
        req.Header.Set("Authorization", "Bearer "+token)
    }
    if admin {
        req.Header.Set("X-API-Key", adminKey)
    }
    return do(t, req)
}

type record struct {
    ID              string     `json:"id"`
    User            string     `json:"user"`
    Email           string     `json:"email"`
    ScreenshotURL   string     `json:"screenshotUrl"`
    ExtractedNumber string     `json:"extractedNumber"`
    ToNumber        string     `json:"toNumber"`
    Carrier         string     `json:"carrier"`
    IsSpam          bool       `json:"isSpam"`
    IsDeleted       bool       `json:"isDeleted"`
    DeletedAt       *time.Time `json:"deletedAt"`
}

func one(t *testing.T, env envelope) record {
    t.Helper()
    var r record
    require.NoError(t, json.Unmarshal(env.Data, &r))
    return r
}

func many(t *testing.T, env envelope) []record {
    t.Helper()
    var r []record
    require.NoError(t, json.Unmarshal(env.Data, &r))
    return r
}

func upload(t *testing.T, srv *httptest.Server, token string) record {
    t.Helper()
    status, env := do(t, uploadRequest(t, srv.URL+"/api/screenshot/upload", token, "image", pngBytes(t), nil))
    require.Equal(t, http.StatusCreated, status, env.Error)
    return one(t, env)
}

func TestUploadClassifies(t *testing.T) {
    srv := newServer(t, "Pesan ini SPAM hubungi +62 812-3456-7890 sekarang")

    req := uploadRequest(t, srv.URL+"/api/screenshot/upload?debug=1", "ani", "image", pngBytes(t),
        map[string]string{"toNumber": "0811", "time": "2024-06-02T09:30:00Z"})
    status, env := do(t, req)
    require.Equal(t, http.StatusCreated, status, env.Error)
    assert.True(t, env.Success)

    rec := one(t, env)
    assert.True(t, rec.IsSpam)
    assert.Equal(t, "+62 812-3456-7890", rec.ExtractedNumber)
    assert.Equal(t, "0811", rec.ToNumber)
    assert.Equal(t, "Unknown", rec.Carrier)
    assert.Equal(t, "u1", rec.User)
    assert.Contains(t, rec.ScreenshotURL, "screenshots/u1/")

    require.NotNil(t, env.Debug)
    assert.Equal(t, "Pesan ini SPAM hubungi +62 812-3456-7890 sekarang", env.Debug["rawOCR"])
    assert.Len(t, env.Debug["attempts"], 1)
    assert.Equal(t, map[string]any{"engine": "fake"}, env.Debug["env"])
}

func TestUploadAcceptsLegacyField(t *testing.T) {
    srv := newServer(t, "hello")
    status, env := do(t, uploadRequest(t, srv.URL+"/api/screenshot/upload", "ani", "imageUrl", pngBytes(t), nil))
    require.Equal(t, http.StatusCreated, status, env.Error)
    rec := one(t, env)
    assert.False(t, rec.IsSpam)
    assert.Equal(t, "Not Found", rec.ExtractedNumber)
    assert.Nil(t, env.Debug)
}

func TestUploadRejections(t *testing.T) {
    srv := newServer(t, "spam")
    url := srv.URL + "/api/screenshot/upload"

    tests := []struct {
        name   string
        req    *http.Request
        status int
    }{
        {"anonymous", uploadRequest(t, url, "", "image", pngBytes(t), nil), http.StatusUnauthorized},
        {"bad token", uploadRequest(t, url, "nobody", "image", pngBytes(t), nil), http.StatusUnauthorized},
        {"no file", uploadRequest(t, url, "ani", "image", nil, map[string]string{"carrier": "x"}), http.StatusBadRequest},
        {"not an image", uploadRequest(t, url, "ani", "image", []byte("plain text, not pixels"), nil), http.StatusBadRequest},
        {"bad time", uploadRequest(t, url, "ani", "image", pngBytes(t), map[string]string{"time": "yesterday"}), http.StatusBadRequest},
    }
    for _, tt := range tests {
        t.Run(tt.name, func(t *testing.T) {
            status, env := do(t, tt.req)
            assert.Equal(t, tt.status, status)
            assert.False(t, env.Success)
            assert.NotEmpty(t, env.Error)
        })
    }
}

func TestLifecycleRoutes(t *testing.T) {
    srv := newServer(t, "junk offer")
    base := srv.URL + "/api/screenshot"
    rec := upload(t, srv, "ani")

    status, env := call(t, http.MethodGet, base+"/"+rec.ID, "", false)
    require.Equal(t, http.StatusOK, status)
    assert.True(t, one(t, env).IsSpam)

    status, _ = call(t, http.MethodDelete, base+"/soft-delete/"+rec.ID, "", false)
    assert.Equal(t, http.StatusUnauthorized, status)

    status, env = call(t, http.MethodDelete, base+"/soft-delete/"+rec.ID, "budi", false)
    require.Equal(t, http.StatusOK, status)
    deleted := one(t, env)
    assert.True(t, deleted.IsDeleted)
    require.NotNil(t, deleted.DeletedAt)

    _, env = call(t, http.MethodGet, base, "", false)
    assert.Empty(t, many(t, env))

    status, _ = call(t, http.MethodGet, base+"/recently-deleted", "ani", false)
    assert.Equal(t, http.StatusForbidden, status)
    status, env = call(t, http.MethodGet, base+"/recently-deleted", "", true)
    require.Equal(t, http.StatusOK, status)
    require.Len(t, many(t, env), 1)

    status, env = call(t, http.MethodPost, base+"/restore/"+rec.ID, "ani", false)
    require.Equal(t, http.StatusOK, status)
    assert.False(t, one(t, env).IsDeleted)
    assert.Nil(t, one(t, env).DeletedAt)

    status, _ = call(t, http.MethodDelete, base+"/permanent/"+rec.ID, "", true)
    require.Equal(t, http.StatusOK, status)

    status, env = call(t, http.MethodGet, base+"/"+rec.ID, "", false)
    assert.Equal(t, http.StatusNotFound, status)
    assert.False(t, env.Success)

    status, _ = call(t, http.MethodPost, base+"/restore/"+rec.ID, "ani", false)
    assert.Equal(t, http.StatusNotFound, status)
    status, _ = call(t, http.MethodGet, base+"/not-a-uuid", "", false)
    assert.Equal(t, http.StatusNotFound, status)
}

func TestOwnerListings(t *testing.T) {
    srv := newServer(t, "hi")
    base := srv.URL + "/api/screenshot"
    for range 3 {
        upload(t, srv, "ani")
    }
    upload(t, srv, "budi")

    status, env := call(t, http.MethodGet, base+"/mine?page=2&limit=2", "ani", false)
    require.Equal(t, http.StatusOK, status)
    assert.Equal(t, 2, env.Page)
    assert.Equal(t, 2, env.Limit)
    assert.EqualValues(t, 3, env.Total)
    assert.Len(t, many(t, env), 1)

    status, _ = call(t, http.MethodGet, base+"/mine", "", true)
    assert.Equal(t, http.StatusUnauthorized, status)

    _, env = call(t, http.MethodGet, base+"/by-email?email=budi@x.io", "", false)
    assert.Len(t, many(t, env), 1)

    // falls back to the caller's own email
    _, env = call(t, http.MethodGet, base+"/by-email", "ani", false)
    assert.Len(t, many(t, env), 3)

    status, _ = call(t, http.MethodGet, base+"/by-email", "", false)
    assert.Equal(t, http.StatusBadRequest, status)
    status, _ = call(t, http.MethodGet, base+"/by-email?email=nope", "", false)
    assert.Equal(t, http.StatusBadRequest, status)

    _, env = call(t, http.MethodGet, base+"/by-name?name=Budi", "", false)
    assert.Len(t, many(t, env), 1)
    _, env = call(t, http.MethodGet, base+"/by-name", "ani", false)
    assert.Len(t, many(t, env), 3)

    _, env = call(t, http.MethodGet, base, "", false)
    assert.Len(t, many(t, env), 4)
}

func TestWrapStatusMapping(t *testing.T) {
    r := &Router{log: zerolog.Nop()}
    tests := []struct {
        err    error
        status int
    }{
        {&http.MaxBytesError{Limit: 10}, http.StatusRequestEntityTooLarge},
        {errBadRequest{"bad"}, http.StatusBadRequest},
        {domain.ErrInvalidImage, http.StatusBadRequest},
        {domain.ErrMissingOwner, http.StatusUnauthorized},
        {fmt.Errorf("%w: gone", domain.ErrNotFound), http.StatusNotFound},
        {fmt.Errorf("%w: bucket down", domain.ErrUpstream), http.StatusInternalServerError},
        {errors.New("boom"), http.StatusInternalServerError},
    }
    for _, tt := range tests {
        rec := httptest.NewRecorder()
        r.wrap(func(http.ResponseWriter, *http.Request) error { return tt.err })(rec, httptest.NewRequest(http.MethodGet, "/", nil))
        assert.Equal(t, tt.status, rec.Code, tt.err.Error())
        assert.Contains(t, rec.Body.String(), `"success":false`)
    }
}
