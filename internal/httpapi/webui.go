package httpapi

import (
	"errors"
	"html/template"
	"net/http"
	"strconv"
	"strings"

	"github.com/ashvale/gatewarden/internal/gatewarden/service"
	"github.com/ashvale/gatewarden/internal/gatewarden/types"
)

// The admin panel is intentionally plain: one table and two forms,
// served to operators on a trusted network.
var adminTemplate = template.Must(template.New("admin").Parse(`<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <title>Gatewarden — Whitelist Admin</title>
  <style>
    body { font-family: sans-serif; margin: 2em; }
    table { border-collapse: collapse; }
    th, td { border: 1px solid #999; padding: 0.3em 0.8em; }
    form { margin: 1em 0; }
  </style>
</head>
<body>
  <h1>Whitelist Admin</h1>
  <p>{{len .Entries}} users whitelisted.</p>
  <table>
    <tr><th>UserID</th><th>Username</th><th>Added by</th><th>Added at</th><th>Source</th><th></th></tr>
    {{range .Entries}}
    <tr>
      <td>{{.UserID}}</td>
      <td>{{.Username}}</td>
      <td>{{.AddedBy}}</td>
      <td>{{.AddedAt.Format "2006-01-02 15:04:05"}}</td>
      <td>{{.Source}}</td>
      <td>
        <form method="post" action="/admin/remove">
          <input type="hidden" name="user_id" value="{{.UserID}}">
          <button type="submit">Remove</button>
        </form>
      </td>
    </tr>
    {{end}}
  </table>
  <h2>Add user</h2>
  <form method="post" action="/admin/add">
    <label>UserID <input type="number" name="user_id" required></label>
    <label>Username <input type="text" name="username" placeholder="optional"></label>
    <label>Added by <input type="text" name="added_by" placeholder="optional"></label>
    <button type="submit">Add</button>
  </form>
</body>
</html>
`))

type adminPageData struct {
	Entries []types.WhitelistEntry
}

func (s *Server) handleAdminPage(w http.ResponseWriter, r *http.Request) {
	entries, err := s.gateway.List(r.Context())
	if err != nil {
		s.internalError(w, "admin page", err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := adminTemplate.Execute(w, adminPageData{Entries: entries}); err != nil {
		s.logger.Error("admin template render failed", "error", err)
	}
}

func (s *Server) handleAdminAdd(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(r.FormValue("user_id"), 10, 64)
	if err != nil || userID <= 0 {
		http.Error(w, "invalid user_id", http.StatusBadRequest)
		return
	}

	actor := strings.TrimSpace(r.FormValue("added_by"))
	if actor == "" {
		actor = "web-admin"
	}

	_, err = s.gateway.Add(r.Context(), service.AddInput{
		UserID:   userID,
		Username: r.FormValue("username"),
		Actor:    actor,
		Source:   types.SourceWeb,
		Caller:   types.Administrator(),
	})
	if err != nil {
		s.internalError(w, "admin add", err)
		return
	}

	http.Redirect(w, r, "/admin", http.StatusSeeOther)
}

func (s *Server) handleAdminRemove(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(r.FormValue("user_id"), 10, 64)
	if err != nil || userID <= 0 {
		http.Error(w, "invalid user_id", http.StatusBadRequest)
		return
	}

	_, err = s.gateway.Remove(r.Context(), userID, types.Administrator())
	if err != nil && !errors.Is(err, service.ErrNotWhitelisted) {
		s.internalError(w, "admin remove", err)
		return
	}

	// Removing an already-absent id from the form is a no-op, not an
	// error page.
	http.Redirect(w, r, "/admin", http.StatusSeeOther)
}
