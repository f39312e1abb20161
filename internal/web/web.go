// Package web renders the public directory as server-side HTML pages.
package web

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/lawdir/directory-api/internal/domain"
	"github.com/lawdir/directory-api/internal/repository"
	"github.com/lawdir/directory-api/internal/service"
	"go.uber.org/zap"
)

//go:embed templates/*.html
var templateFS embed.FS

// Handler serves the public site
type Handler struct {
	siteName    string
	directory   *service.DirectoryService
	content     *service.ContentService
	nominations *service.NominationService
	pages       map[string]*template.Template
	validate    *validator.Validate
	logger      *zap.Logger
}

// page is the data every template receives
type page struct {
	SiteName        string
	Title           string
	MetaDescription string
	Path            string
	Nav             []domain.PageDTO
	Data            interface{}
}

func NewHandler(
	siteName string,
	directory *service.DirectoryService,
	content *service.ContentService,
	nominations *service.NominationService,
	logger *zap.Logger,
) (*Handler, error) {
	pages, err := parseTemplates(templateFS)
	if err != nil {
		return nil, err
	}
	return &Handler{
		siteName:    siteName,
		directory:   directory,
		content:     content,
		nominations: nominations,
		pages:       pages,
		validate:    validator.New(),
		logger:      logger,
	}, nil
}

var templateFuncs = template.FuncMap{
	// safeHTML is only used on markdown output that was sanitized when saved
	"safeHTML": func(s string) template.HTML { return template.HTML(s) },
	"add":      func(a, b int) int { return a + b },
	"sub":      func(a, b int) int { return a - b },
	"pager": func(page, totalPages int, base string) pagerView {
		return pagerView{Page: page, TotalPages: totalPages, Base: base}
	},
}

type pagerView struct {
	Page       int
	TotalPages int
	Base       string
}

// URL links to another page of the same listing
func (p pagerView) URL(page int) string {
	sep := "?"
	if strings.Contains(p.Base, "?") {
		sep = "&"
	}
	return p.Base + sep + "page=" + strconv.Itoa(page)
}

func parseTemplates(fsys fs.FS) (map[string]*template.Template, error) {
	names, err := fs.Glob(fsys, "templates/*.html")
	if err != nil {
		return nil, err
	}
	pages := make(map[string]*template.Template)
	for _, name := range names {
		base := strings.TrimPrefix(name, "templates/")
		if base == "layout.html" {
			continue
		}
		t, err := template.New(base).Funcs(templateFuncs).ParseFS(fsys, "templates/layout.html", name)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", base, err)
		}
		pages[strings.TrimSuffix(base, ".html")] = t
	}
	return pages, nil
}

// Routes returns the site router
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Get("/", h.home)
	r.Get("/search", h.search)
	r.Get("/practice-areas/{slug}", h.practiceArea)
	r.Get("/firms/{slug}", h.firm)
	r.Get("/nominate", h.nominationForm)
	r.Post("/nominate", h.submitNomination)
	r.Get("/nominate/thanks", h.nominationThanks)
	r.Get("/blog", h.blogIndex)
	r.Get("/blog/{slug}", h.blogPost)
	r.Get("/p/{slug}", h.staticPage)
	r.Get("/{state}", h.state)
	r.Get("/{state}/metro/{metro}", h.metro)
	r.Get("/{state}/{city}", h.city)
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		h.render(w, r, http.StatusNotFound, "not_found", "Page not found", "", nil)
	})
	return r
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, name, title, description string, data interface{}) {
	t, ok := h.pages[name]
	if !ok {
		h.logger.Error("unknown template", zap.String("template", name))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	nav, err := h.content.NavPages(r.Context())
	if err != nil {
		h.logger.Warn("failed to load navigation pages", zap.Error(err))
	}

	var buf bytes.Buffer
	err = t.ExecuteTemplate(&buf, "layout", page{
		SiteName:        h.siteName,
		Title:           title,
		MetaDescription: description,
		Path:            r.URL.Path,
		Nav:             nav,
		Data:            data,
	})
	if err != nil {
		h.logger.Error("failed to render page", zap.String("template", name), zap.Error(err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (h *Handler) renderError(w http.ResponseWriter, r *http.Request, err error, action string) {
	if errors.Is(err, service.ErrNotFound) {
		h.render(w, r, http.StatusNotFound, "not_found", "Page not found", "", nil)
		return
	}
	h.logger.Error("failed to "+action, zap.String("path", r.URL.Path), zap.Error(err))
	h.render(w, r, http.StatusInternalServerError, "error", "Something went wrong", "", nil)
}

func pageNumber(r *http.Request) int {
	p, _ := strconv.Atoi(r.URL.Query().Get("page"))
	p, _ = repository.NormalizePagination(p, listPageSize)
	return p
}

const listPageSize = 20

func (h *Handler) home(w http.ResponseWriter, r *http.Request) {
	home, err := h.directory.Home(r.Context())
	if err != nil {
		h.renderError(w, r, err, "load home page")
		return
	}
	h.render(w, r, http.StatusOK, "home", h.siteName, "Find law firms by state, city and practice area", home)
}

func (h *Handler) state(w http.ResponseWriter, r *http.Request) {
	landing, err := h.directory.StateLanding(r.Context(), chi.URLParam(r, "state"), pageNumber(r), listPageSize)
	if err != nil {
		h.renderError(w, r, err, "load state page")
		return
	}
	title := "Law firms in " + landing.State.Name
	h.render(w, r, http.StatusOK, "state", title, title, landing)
}

func (h *Handler) metro(w http.ResponseWriter, r *http.Request) {
	landing, err := h.directory.MetroLanding(r.Context(), chi.URLParam(r, "state"), chi.URLParam(r, "metro"), pageNumber(r), listPageSize)
	if err != nil {
		h.renderError(w, r, err, "load metro page")
		return
	}
	title := "Law firms in the " + landing.Metro.Name + " area"
	h.render(w, r, http.StatusOK, "metro", title, title, landing)
}

func (h *Handler) city(w http.ResponseWriter, r *http.Request) {
	landing, err := h.directory.CityLanding(r.Context(), chi.URLParam(r, "state"), chi.URLParam(r, "city"), pageNumber(r), listPageSize)
	if err != nil {
		h.renderError(w, r, err, "load city page")
		return
	}
	title := fmt.Sprintf("Law firms in %s, %s", landing.City.Name, landing.State.Code)
	h.render(w, r, http.StatusOK, "city", title, title, landing)
}

func (h *Handler) practiceArea(w http.ResponseWriter, r *http.Request) {
	landing, err := h.directory.PracticeAreaLanding(r.Context(), chi.URLParam(r, "slug"), pageNumber(r), listPageSize)
	if err != nil {
		h.renderError(w, r, err, "load practice area page")
		return
	}
	title := landing.PracticeArea.Name + " law firms"
	h.render(w, r, http.StatusOK, "practice_area", title, landing.PracticeArea.Description, landing)
}

func (h *Handler) firm(w http.ResponseWriter, r *http.Request) {
	firm, err := h.directory.FirmProfile(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		h.renderError(w, r, err, "load firm profile")
		return
	}
	h.render(w, r, http.StatusOK, "firm", firm.Name, firm.Description, firm)
}

type searchView struct {
	Params        domain.FirmSearchParams
	Results       *domain.PaginatedResponse
	States        []domain.StateDTO
	PracticeAreas []domain.PracticeAreaDTO
	BaseURL       string
}

func (h *Handler) search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	minTier, _ := strconv.Atoi(q.Get("minTier"))
	params := domain.FirmSearchParams{
		Query:        q.Get("q"),
		State:        q.Get("state"),
		Metro:        q.Get("metro"),
		City:         q.Get("city"),
		PracticeArea: q.Get("practiceArea"),
		MinTier:      minTier,
		PremiumOnly:  q.Get("premiumOnly") == "true",
		Page:         pageNumber(r),
		PageSize:     listPageSize,
	}

	results, err := h.directory.Search(r.Context(), params)
	if err != nil {
		h.renderError(w, r, err, "search firms")
		return
	}
	states, err := h.directory.States(r.Context())
	if err != nil {
		h.renderError(w, r, err, "load states")
		return
	}
	areas, err := h.directory.PracticeAreas(r.Context())
	if err != nil {
		h.renderError(w, r, err, "load practice areas")
		return
	}

	base := url.Values{}
	for key, values := range q {
		if key != "page" && len(values) > 0 && values[0] != "" {
			base.Set(key, values[0])
		}
	}
	h.render(w, r, http.StatusOK, "search", "Search law firms", "", searchView{
		Params:        params,
		Results:       results,
		States:        states,
		PracticeAreas: areas,
		BaseURL:       "/search?" + base.Encode(),
	})
}

type nominationView struct {
	Form   domain.SubmitNominationRequest
	Errors map[string]string
}

func (h *Handler) nominationForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "nominate", "Nominate a law firm", "", nominationView{})
}

func (h *Handler) submitNomination(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 64<<10)
	if err := r.ParseForm(); err != nil {
		h.render(w, r, http.StatusBadRequest, "nominate", "Nominate a law firm", "", nominationView{
			Errors: map[string]string{"form": "The form could not be read. Please try again."},
		})
		return
	}

	form := domain.SubmitNominationRequest{
		FirmName:              strings.TrimSpace(r.PostFormValue("firmName")),
		FirmWebsite:           strings.TrimSpace(r.PostFormValue("firmWebsite")),
		FirmEmail:             strings.TrimSpace(r.PostFormValue("firmEmail")),
		FirmPhone:             strings.TrimSpace(r.PostFormValue("firmPhone")),
		Address:               strings.TrimSpace(r.PostFormValue("address")),
		City:                  strings.TrimSpace(r.PostFormValue("city")),
		State:                 strings.TrimSpace(r.PostFormValue("state")),
		PracticeAreas:         strings.TrimSpace(r.PostFormValue("practiceAreas")),
		NominatorName:         strings.TrimSpace(r.PostFormValue("nominatorName")),
		NominatorEmail:        strings.TrimSpace(r.PostFormValue("nominatorEmail")),
		NominatorRelationship: strings.TrimSpace(r.PostFormValue("nominatorRelationship")),
		Reason:                strings.TrimSpace(r.PostFormValue("reason")),
		Website2:              r.PostFormValue("website2"),
	}

	if err := h.validate.Struct(form); err != nil {
		h.render(w, r, http.StatusUnprocessableEntity, "nominate", "Nominate a law firm", "", nominationView{
			Form:   form,
			Errors: fieldErrors(err),
		})
		return
	}

	_, err := h.nominations.Submit(r.Context(), &form, service.ClientIP(r))
	switch {
	case err == nil, errors.Is(err, service.ErrSpamDetected):
		// Bots get the same confirmation as people
		http.Redirect(w, r, "/nominate/thanks", http.StatusSeeOther)
	case errors.Is(err, service.ErrDuplicateNomination):
		h.render(w, r, http.StatusConflict, "nominate", "Nominate a law firm", "", nominationView{
			Form:   form,
			Errors: map[string]string{"form": "You have already nominated this firm. It is waiting for review."},
		})
	case errors.Is(err, service.ErrInvalidInput):
		h.render(w, r, http.StatusUnprocessableEntity, "nominate", "Nominate a law firm", "", nominationView{
			Form:   form,
			Errors: map[string]string{"form": err.Error()},
		})
	default:
		h.renderError(w, r, err, "submit nomination")
	}
}

func (h *Handler) nominationThanks(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "nominate_thanks", "Thank you", "", nil)
}

// fieldErrors keys validation failures by form field name
func fieldErrors(err error) map[string]string {
	out := map[string]string{}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		out["form"] = "Please check the form and try again."
		return out
	}
	for _, fe := range verrs {
		field := fe.Field()
		name := strings.ToLower(field[:1]) + field[1:]
		switch fe.Tag() {
		case "required":
			out[name] = "This field is required."
		case "email":
			out[name] = "Enter a valid email address."
		case "url":
			out[name] = "Enter a full web address, starting with https://."
		case "max":
			out[name] = "This value is too long."
		default:
			out[name] = "This value is not valid."
		}
	}
	return out
}

type blogView struct {
	Posts        *domain.PaginatedResponse
	PracticeArea string
	BaseURL      string
}

func (h *Handler) blogIndex(w http.ResponseWriter, r *http.Request) {
	area := r.URL.Query().Get("practiceArea")
	posts, err := h.content.ListPublishedPosts(r.Context(), area, pageNumber(r), 10)
	if err != nil {
		h.renderError(w, r, err, "list blog posts")
		return
	}
	base := "/blog"
	if area != "" {
		base += "?practiceArea=" + url.QueryEscape(area)
	}
	h.render(w, r, http.StatusOK, "blog", "Blog", "", blogView{Posts: posts, PracticeArea: area, BaseURL: base})
}

func (h *Handler) blogPost(w http.ResponseWriter, r *http.Request) {
	post, err := h.content.GetPublishedPost(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		h.renderError(w, r, err, "load blog post")
		return
	}
	h.render(w, r, http.StatusOK, "post", post.Title, post.Excerpt, post)
}

func (h *Handler) staticPage(w http.ResponseWriter, r *http.Request) {
	p, err := h.content.GetPublishedPage(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		h.renderError(w, r, err, "load page")
		return
	}
	h.render(w, r, http.StatusOK, "page", p.Title, p.MetaDescription, p)
}
