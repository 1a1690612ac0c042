package httpserver

import (
    "context"
    "errors"
    "io"
    "net/http"
    "strings"

    "github.com/go-chi/chi/v5"

    appscreens "github.com/bryanwahyu/spamshot/internal/application/screenshots"
    domain "github.com/bryanwahyu/spamshot/internal/domain/screenshots"
    "github.com/bryanwahyu/spamshot/internal/middleware"
)

// imageFields are the multipart names accepted for the screenshot file.
var imageFields = []string{"image", "imageUrl"}

// POST /api/screenshot/upload
func (r *Router) handleUpload(w http.ResponseWriter, req *http.Request) error {
    p, _ := middleware.PrincipalFromContext(req.Context())

    req.Body = http.MaxBytesReader(w, req.Body, r.maxUpload)
    if err := req.ParseMultipartForm(r.maxUpload); err != nil {
        var tooLarge *http.MaxBytesError
        if errors.As(err, &tooLarge) {
            return err
        }
        if !errors.Is(err, http.ErrNotMultipart) {
            return errBadRequest{"invalid multipart body"}
        }
        return domain.ErrNoFile
    }
    defer req.MultipartForm.RemoveAll()

    img, err := readImage(req)
    if err != nil {
        return err
    }
    submitted, err := middleware.ParseTime(req.FormValue("time"))
    if err != nil {
        return errBadRequest{err.Error()}
    }

    // the client may hang up; the analysis still completes and is broadcast
    ctx := context.WithoutCancel(req.Context())
    res, err := r.svc.Upload(ctx, appscreens.UploadCommand{
        Owner:       domain.Owner{UserID: p.ID, Email: p.Email, Name: p.Name},
        Image:       img,
        ToNumber:    middleware.SanitizeField(req.FormValue("toNumber")),
        Carrier:     middleware.SanitizeField(req.FormValue("carrier")),
        SubmittedAt: submitted,
    })
    if err != nil {
        middleware.IncrementUploadsFailed()
        return err
    }
    middleware.RecordUpload(res.Screenshot.IsSpam, res.RawText == "")

    body := map[string]any{"success": true, "data": domain.Shape(res.Screenshot)}
    if isDebug(req) {
        attempts := make([]map[string]any, 0, len(res.OCR.Attempts))
        for _, a := range res.OCR.Attempts {
            entry := map[string]any{
                "source":    a.Source,
                "strategy":  a.Mode,
                "elapsedMs": a.ElapsedMS(),
                "length":    a.Length,
            }
            if a.Err != "" {
                entry["error"] = a.Err
            }
            attempts = append(attempts, entry)
        }
        body["debug"] = map[string]any{
            "rawOCR":     res.RawText,
            "normalized": res.Normalized,
            "attempts":   attempts,
            "ocrErrors":  res.OCR.Errors(),
            "env":        r.debugEnv,
        }
    }
    return writeJSON(w, http.StatusCreated, body)
}

func readImage(req *http.Request) ([]byte, error) {
    for _, field := range imageFields {
        f, _, err := req.FormFile(field)
        if errors.Is(err, http.ErrMissingFile) {
            continue
        }
        if err != nil {
            return nil, errBadRequest{"invalid file field " + field}
        }
        defer f.Close()
        data, err := io.ReadAll(f)
        if err != nil {
            return nil, err
        }
        if len(data) == 0 {
            return nil, domain.ErrNoFile
        }
        return data, nil
    }
    return nil, domain.ErrNoFile
}

func isDebug(req *http.Request) bool {
    switch strings.ToLower(req.URL.Query().Get("debug")) {
    case "1", "true", "yes":
        return true
    }
    return false
}

// GET /api/screenshot
func (r *Router) handleListActive(w http.ResponseWriter, req *http.Request) error {
    list, err := r.svc.ListActive(req.Context())
    if err != nil {
        return err
    }
    return ok(w, http.StatusOK, domain.ShapeAll(list))
}

// GET /api/screenshot/mine?page=&limit=
func (r *Router) handleListByOwner(w http.ResponseWriter, req *http.Request) error {
    p, _ := middleware.PrincipalFromContext(req.Context())
    page, limit := middleware.Pagination(req)
    res, err := r.svc.ListByOwner(req.Context(), p.ID, page, limit)
    if err != nil {
        return err
    }
    return writeJSON(w, http.StatusOK, map[string]any{
        "success": true,
        "page":    res.Page,
        "limit":   res.Limit,
        "total":   res.Total,
        "data":    domain.ShapeAll(res.Data),
    })
}

// GET /api/screenshot/by-email?email=
func (r *Router) handleListByEmail(w http.ResponseWriter, req *http.Request) error {
    email := strings.TrimSpace(req.URL.Query().Get("email"))
    if email == "" {
        if p, found := middleware.PrincipalFromContext(req.Context()); found {
            email = p.Email
        }
    }
    if email != "" {
        if err := middleware.ValidateEmail(email); err != nil {
            return errBadRequest{err.Error()}
        }
    }
    list, err := r.svc.ListByEmail(req.Context(), email)
    if err != nil {
        return err
    }
    return ok(w, http.StatusOK, domain.ShapeAll(list))
}

// GET /api/screenshot/by-name?name=
func (r *Router) handleListByName(w http.ResponseWriter, req *http.Request) error {
    name := middleware.SanitizeField(req.URL.Query().Get("name"))
    if name == "" {
        if p, found := middleware.PrincipalFromContext(req.Context()); found {
            name = p.Name
        }
    }
    list, err := r.svc.ListByName(req.Context(), name)
    if err != nil {
        return err
    }
    return ok(w, http.StatusOK, domain.ShapeAll(list))
}

// GET /api/screenshot/recently-deleted
func (r *Router) handleRecentlyDeleted(w http.ResponseWriter, req *http.Request) error {
    list, err := r.svc.RecentlyDeleted(req.Context())
    if err != nil {
        return err
    }
    return ok(w, http.StatusOK, domain.ShapeAll(list))
}

// GET /api/screenshot/{id}
func (r *Router) handleGet(w http.ResponseWriter, req *http.Request) error {
    id, err := pathID(req)
    if err != nil {
        return err
    }
    rec, err := r.svc.Get(req.Context(), id)
    if err != nil {
        return err
    }
    return ok(w, http.StatusOK, domain.Shape(rec))
}

func (r *Router) handleSoftDelete(w http.ResponseWriter, req *http.Request) error {
    return r.lifecycle(w, req, r.svc.SoftDelete)
}

func (r *Router) handleRestore(w http.ResponseWriter, req *http.Request) error {
    return r.lifecycle(w, req, r.svc.Restore)
}

func (r *Router) handlePermanentDelete(w http.ResponseWriter, req *http.Request) error {
    return r.lifecycle(w, req, r.svc.PermanentDelete)
}

func (r *Router) lifecycle(w http.ResponseWriter, req *http.Request, op func(context.Context, domain.ID) (*domain.Screenshot, error)) error {
    id, err := pathID(req)
    if err != nil {
        return err
    }
    rec, err := op(req.Context(), id)
    if err != nil {
        return err
    }
    return ok(w, http.StatusOK, domain.Shape(rec))
}

// pathID rejects ids that could never exist so they 404 without a query.
func pathID(req *http.Request) (domain.ID, error) {
    raw := chi.URLParam(req, "id")
    if err := middleware.ValidateScreenshotID(raw); err != nil {
        return "", domain.ErrNotFound
    }
    return domain.ID(raw), nil
}
