package handler

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/oapi-codegen/runtime"

	"github.com/pkordes/labelcase/internal/auth"
	"github.com/pkordes/labelcase/internal/docs"
	"github.com/pkordes/labelcase/internal/domain"
	"github.com/pkordes/labelcase/internal/hooks"
	"github.com/pkordes/labelcase/internal/lowercase"
)

// AdminPath is the admin page; form posts redirect back to it.
const AdminPath = "/admin/labels-lowercase"

// Ajax actions accepted by POST /admin/ajax.
const (
	AjaxConvertLabel = "convert_tag_to_lowercase"
	AjaxAddLabel     = "add-tag"
)

const msgLabelAdded = "Label \"%s\" added."

//go:embed templates/admin.html
var adminHTML string

var adminPage = template.Must(template.New("admin").Parse(adminHTML))

type adminPageData struct {
	Title            string
	Notice           string
	Error            string
	Usage            template.HTML
	Stats            lowercase.Stats
	BulkActions      []hooks.BulkAction
	ConvertAllAction string
	ConvertAllToken  string
	AjaxAction       string
	AjaxToken        string
	BulkToken        string
}

// AjaxResponse is the body of every POST /admin/ajax and inline-save reply.
type AjaxResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Label   *Label `json:"label,omitempty"`
}

// BulkActionInfo describes one entry of the bulk action menu.
type BulkActionInfo struct {
	Name  string `json:"name"`
	Title string `json:"title"`
}

type convertForm struct {
	ID int64 `validate:"gt=0"`
}

type addLabelForm struct {
	Name string `validate:"required,max=200"`
}

type inlineSaveForm struct {
	ID   int64  `validate:"gt=0"`
	Name string `validate:"required,max=200"`
}

type bulkForm struct {
	Action string  `validate:"required"`
	IDs    []int64 `validate:"required,min=1,max=1000,dive,gt=0"`
}

// GetAdminPage handles GET /admin/labels-lowercase.
// It renders the conversion form, the usage notes and the statistics card,
// embedding fresh action tokens for the caller.
func (s *Server) GetAdminPage(w http.ResponseWriter, r *http.Request) {
	p, err := auth.Require(r.Context(), auth.CapManageCatalog)
	if err != nil {
		s.writeError(w, r, err, "")
		return
	}

	var converted *int
	if err := runtime.BindQueryParameter("form", true, false, lowercase.ResultParam, r.URL.Query(), &converted); err != nil {
		writeJSON(w, http.StatusBadRequest, requestBody(err.Error()))
		return
	}

	data := adminPageData{
		Title:            "Convert labels to lowercase",
		ConvertAllAction: auth.ActionConvertAll,
		AjaxAction:       AjaxConvertLabel,
	}
	if converted != nil {
		data.Notice = fmt.Sprintf(s.converter.T(lowercase.MsgBulkDone), *converted)
	}
	if r.URL.Query().Get("interrupted") != "" {
		data.Error = "The conversion stopped early; run it again to finish."
	}

	if data.ConvertAllToken, err = s.tokens.IssueActionToken(p.Subject, auth.ActionConvertAll); err != nil {
		s.writeError(w, r, err, "")
		return
	}
	if data.AjaxToken, err = s.tokens.IssueActionToken(p.Subject, auth.ActionAjax); err != nil {
		s.writeError(w, r, err, "")
		return
	}
	if s.bulk != nil {
		data.BulkActions = s.bulk.BulkActions()
		if data.BulkToken, err = s.tokens.IssueActionToken(p.Subject, auth.ActionBulk); err != nil {
			s.writeError(w, r, err, "")
			return
		}
	}

	if data.Stats, err = s.converter.Stats(r.Context(), s.sampleSize); err != nil {
		s.writeError(w, r, err, "")
		return
	}
	if data.Usage, err = docs.HTML(); err != nil {
		s.writeError(w, r, err, "")
		return
	}

	var buf bytes.Buffer
	if err := adminPage.Execute(&buf, data); err != nil {
		s.writeError(w, r, err, "")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

// ConvertAllLabels handles POST /admin/labels-lowercase.
// After checking the capability and the action token it folds every label
// and redirects to the admin page with the number of labels written.
func (s *Server) ConvertAllLabels(w http.ResponseWriter, r *http.Request) {
	p, err := auth.Require(r.Context(), auth.CapManageCatalog)
	if err != nil {
		s.writeError(w, r, err, "")
		return
	}
	if r.PostFormValue("action") != auth.ActionConvertAll {
		writeJSON(w, http.StatusBadRequest, requestBody("unknown action"))
		return
	}
	if err := s.tokens.VerifyActionToken(r.PostFormValue("token"), p.Subject, auth.ActionConvertAll); err != nil {
		s.writeError(w, r, err, "")
		return
	}

	n, err := s.converter.ConvertAll(r.Context())
	q := url.Values{lowercase.ResultParam: {strconv.Itoa(n)}}
	if err != nil {
		// Writes made before the failure are committed; report them and flag the run.
		s.log.ErrorContext(r.Context(), "bulk conversion interrupted", "converted", n, "error", err)
		q.Set("interrupted", "1")
	}
	http.Redirect(w, r, AdminPath+"?"+q.Encode(), http.StatusSeeOther)
}

// AdminAjax handles POST /admin/ajax.
//
// action=convert_tag_to_lowercase folds the label named by id.
// action=add-tag creates a label from the tag-name field.
// Both require manage_labels and an action token for labelcase_ajax; a failed
// check is answered before any label is read.
func (s *Server) AdminAjax(w http.ResponseWriter, r *http.Request) {
	switch r.PostFormValue("action") {
	case AjaxConvertLabel:
		s.ajaxConvert(w, r)
	case AjaxAddLabel:
		if s.labels == nil {
			writeJSON(w, http.StatusBadRequest, AjaxResponse{Message: "unknown action"})
			return
		}
		s.ajaxAddLabel(w, r)
	default:
		writeJSON(w, http.StatusBadRequest, AjaxResponse{Message: "unknown action"})
	}
}

func (s *Server) ajaxConvert(w http.ResponseWriter, r *http.Request) {
	if !s.authorizeAjax(w, r) {
		return
	}
	var f convertForm
	f.ID, _ = strconv.ParseInt(r.PostFormValue("id"), 10, 64)
	if err := s.validate.Struct(f); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, AjaxResponse{Message: fieldErrors(err)})
		return
	}

	res, err := s.converter.ConvertOne(r.Context(), f.ID)
	if err != nil {
		s.log.WarnContext(r.Context(), "single conversion failed", "label_id", f.ID, "error", err)
		writeJSON(w, statusFor(err), AjaxResponse{Message: s.converter.T(lowercase.MsgConvertError)})
		return
	}
	writeJSON(w, http.StatusOK, AjaxResponse{Success: true, Message: res.Message})
}

func (s *Server) ajaxAddLabel(w http.ResponseWriter, r *http.Request) {
	if !s.authorizeAjax(w, r) {
		return
	}
	f := addLabelForm{Name: r.PostFormValue("tag-name")}
	if err := s.validate.Struct(f); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, AjaxResponse{Message: fieldErrors(err)})
		return
	}

	l, err := s.labels.Create(r.Context(), f.Name)
	if err != nil {
		writeJSON(w, statusFor(err), AjaxResponse{Message: ajaxErrorMessage(err)})
		return
	}
	resp := labelToResponse(l)
	writeJSON(w, http.StatusCreated, AjaxResponse{
		Success: true,
		Message: fmt.Sprintf(s.converter.T(msgLabelAdded), l.Name),
		Label:   &resp,
	})
}

// InlineSave handles POST /admin/inline-save: a quick rename from the label
// list. The name field has already passed the form-field filters.
func (s *Server) InlineSave(w http.ResponseWriter, r *http.Request) {
	if !s.authorizeAjax(w, r) {
		return
	}
	var f inlineSaveForm
	f.ID, _ = strconv.ParseInt(r.PostFormValue("id"), 10, 64)
	f.Name = r.PostFormValue("name")
	if err := s.validate.Struct(f); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, AjaxResponse{Message: fieldErrors(err)})
		return
	}

	l, err := s.labels.Update(r.Context(), f.ID, f.Name)
	if err != nil {
		writeJSON(w, statusFor(err), AjaxResponse{Message: ajaxErrorMessage(err)})
		return
	}
	resp := labelToResponse(l)
	writeJSON(w, http.StatusOK, AjaxResponse{Success: true, Message: l.Name, Label: &resp})
}

// ListBulkActions handles GET /admin/labels/bulk-actions.
func (s *Server) ListBulkActions(w http.ResponseWriter, r *http.Request) {
	if _, err := auth.Require(r.Context(), auth.CapManageCatalog); err != nil {
		s.writeError(w, r, err, "")
		return
	}
	actions := s.bulk.BulkActions()
	out := make([]BulkActionInfo, len(actions))
	for i, a := range actions {
		out[i] = BulkActionInfo{Name: a.Name, Title: a.Title}
	}
	writeJSON(w, http.StatusOK, out)
}

// RunBulkAction handles POST /admin/labels/bulk.
// It runs the named bulk action over the selected ids and redirects to
// redirect_to with the action's result parameter set to the changed count.
func (s *Server) RunBulkAction(w http.ResponseWriter, r *http.Request) {
	p, err := auth.Require(r.Context(), auth.CapManageCatalog)
	if err != nil {
		s.writeError(w, r, err, "")
		return
	}
	if err := s.tokens.VerifyActionToken(r.PostFormValue("token"), p.Subject, auth.ActionBulk); err != nil {
		s.writeError(w, r, err, "")
		return
	}

	ids, err := parseIDs(r)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, requestBody(err.Error()))
		return
	}
	f := bulkForm{Action: r.PostFormValue("action"), IDs: ids}
	if err := s.validate.Struct(f); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, requestBody(fieldErrors(err)))
		return
	}
	action, ok := s.bulk.BulkAction(f.Action)
	if !ok {
		writeJSON(w, http.StatusBadRequest, requestBody("unknown bulk action"))
		return
	}

	n, err := action.Run(r.Context(), f.IDs)
	if err != nil {
		s.log.ErrorContext(r.Context(), "bulk action failed", "action", action.Name, "converted", n, "error", err)
	}

	target := safeRedirect(r.PostFormValue("redirect_to"))
	q := target.Query()
	if action.ResultParam != "" {
		q.Set(action.ResultParam, strconv.Itoa(n))
	}
	target.RawQuery = q.Encode()
	http.Redirect(w, r, target.String(), http.StatusSeeOther)
}

// authorizeAjax checks manage_labels and the ajax action token, writing a
// failure reply when either is missing.
func (s *Server) authorizeAjax(w http.ResponseWriter, r *http.Request) bool {
	p, err := auth.Require(r.Context(), auth.CapManageLabels)
	if err == nil {
		err = s.tokens.VerifyActionToken(r.PostFormValue("token"), p.Subject, auth.ActionAjax)
	}
	if err != nil {
		writeJSON(w, statusFor(err), AjaxResponse{Message: s.converter.T(lowercase.MsgUnauthorized)})
		return false
	}
	return true
}

// ajaxErrorMessage returns the reply text for a failed label write.
func ajaxErrorMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return unwrapMessage(err)
	case errors.Is(err, domain.ErrConflict):
		return "a label with this name already exists"
	case errors.Is(err, domain.ErrNotFound):
		return "label not found"
	default:
		return "internal server error"
	}
}

// parseIDs reads the ids form field, accepting repeated values and
// comma-separated lists.
func parseIDs(r *http.Request) ([]int64, error) {
	if err := r.ParseForm(); err != nil {
		return nil, fmt.Errorf("malformed form body")
	}
	var ids []int64
	for _, v := range r.PostForm["ids"] {
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := strconv.ParseInt(part, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid label id %q", part)
			}
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// safeRedirect keeps redirects on this host: anything that is not a plain
// absolute path falls back to the admin page.
func safeRedirect(raw string) *url.URL {
	u, err := url.Parse(raw)
	if err != nil || raw == "" || !strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "//") || u.Host != "" || u.Scheme != "" {
		u, _ = url.Parse(AdminPath)
	}
	return u
}
