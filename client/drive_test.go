package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/formflow/go-formflow"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/forms/v1"
	"google.golang.org/api/option"
)

// fakeDrive emulates the Drive file and permission endpoints the client
// touches, recording the query and reparent parameters it receives.
type fakeDrive struct {
	files  []*drive.File
	perms  []*drive.Permission
	nextID int

	lastQuery      string
	createdFile    *drive.File
	addedParents   string
	removedParents string
	deletedPerms   []string
}

func (f *fakeDrive) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && strings.HasSuffix(r.URL.Path, "/permissions"):
			json.NewEncoder(w).Encode(&drive.PermissionList{Permissions: f.perms})
		case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/permissions"):
			f.handleCreatePermission(w, r)
		case r.Method == http.MethodPatch && strings.Contains(r.URL.Path, "/permissions/"):
			f.handleUpdatePermission(w, r)
		case r.Method == http.MethodDelete && strings.Contains(r.URL.Path, "/permissions/"):
			parts := strings.Split(r.URL.Path, "/")
			f.deletedPerms = append(f.deletedPerms, parts[len(parts)-1])
			w.WriteHeader(http.StatusNoContent)
		case r.Method == http.MethodGet && strings.HasSuffix(r.URL.Path, "files"):
			f.lastQuery = r.URL.Query().Get("q")
			json.NewEncoder(w).Encode(&drive.FileList{Files: f.files})
		case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "files"):
			f.handleCreateFile(w, r)
		case r.Method == http.MethodGet && strings.Contains(r.URL.Path, "files/"):
			json.NewEncoder(w).Encode(f.files[0])
		case r.Method == http.MethodPatch && strings.Contains(r.URL.Path, "files/"):
			f.addedParents = r.URL.Query().Get("addParents")
			f.removedParents = r.URL.Query().Get("removeParents")
			json.NewEncoder(w).Encode(f.files[0])
		default:
			http.Error(w, fmt.Sprintf("unexpected call: %s %s", r.Method, r.URL.Path), http.StatusNotFound)
		}
	})
}

func (f *fakeDrive) handleCreateFile(w http.ResponseWriter, r *http.Request) {
	var file drive.File
	if err := json.NewDecoder(r.Body).Decode(&file); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	file.Id = "folder1"
	f.createdFile = &file
	json.NewEncoder(w).Encode(&file)
}

func (f *fakeDrive) handleCreatePermission(w http.ResponseWriter, r *http.Request) {
	var perm drive.Permission
	if err := json.NewDecoder(r.Body).Decode(&perm); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	f.nextID++
	perm.Id = fmt.Sprintf("perm%d", f.nextID)
	f.perms = append(f.perms, &perm)
	json.NewEncoder(w).Encode(&perm)
}

func (f *fakeDrive) handleUpdatePermission(w http.ResponseWriter, r *http.Request) {
	var update drive.Permission
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	parts := strings.Split(r.URL.Path, "/")
	id := parts[len(parts)-1]
	for _, perm := range f.perms {
		if perm.Id == id {
			perm.Role = update.Role
			json.NewEncoder(w).Encode(perm)
			return
		}
	}
	http.Error(w, "permission not found", http.StatusNotFound)
}

func newDriveTestClient(t *testing.T, fake *fakeDrive) *Client {
	t.Helper()
	srv := httptest.NewServer(fake.handler())
	t.Cleanup(srv.Close)

	ctx := context.Background()
	formsService, err := forms.NewService(ctx,
		option.WithEndpoint(srv.URL), option.WithoutAuthentication())
	if err != nil {
		t.Fatalf("forms.NewService() = %v", err)
	}
	driveService, err := drive.NewService(ctx,
		option.WithEndpoint(srv.URL), option.WithoutAuthentication())
	if err != nil {
		t.Fatalf("drive.NewService() = %v", err)
	}
	return New(formsService, driveService, WithWriteGate(nil))
}

func TestListFormsFiltersByName(t *testing.T) {
	fake := &fakeDrive{files: []*drive.File{
		{Id: "form1", Name: "Science Quiz", MimeType: mimeTypeGoogleForm},
	}}
	c := newDriveTestClient(t, fake)

	files, err := c.ListForms("Bob's Quiz")
	if err != nil {
		t.Fatalf("ListForms() = %v", err)
	}
	if len(files) != 1 || files[0].ID != "form1" {
		t.Fatalf("ListForms() = %+v, want one file form1", files)
	}
	if !strings.Contains(fake.lastQuery, "mimeType = 'application/vnd.google-apps.form'") {
		t.Errorf("query = %q, want form mime type clause", fake.lastQuery)
	}
	if !strings.Contains(fake.lastQuery, `name contains 'Bob\'s Quiz'`) {
		t.Errorf("query = %q, want escaped name clause", fake.lastQuery)
	}
}

func TestCreateFolderUnderParent(t *testing.T) {
	fake := &fakeDrive{}
	c := newDriveTestClient(t, fake)

	folder, err := c.CreateFolder("Surveys", "parent1")
	if err != nil {
		t.Fatalf("CreateFolder() = %v", err)
	}
	if folder.ID != "folder1" || folder.Name != "Surveys" {
		t.Errorf("CreateFolder() = %+v, want folder1 Surveys", folder)
	}
	if fake.createdFile.MimeType != mimeTypeGoogleFolder {
		t.Errorf("MimeType = %q, want %q", fake.createdFile.MimeType, mimeTypeGoogleFolder)
	}
	if len(fake.createdFile.Parents) != 1 || fake.createdFile.Parents[0] != "parent1" {
		t.Errorf("Parents = %v, want [parent1]", fake.createdFile.Parents)
	}
}

func TestMoveFormReparents(t *testing.T) {
	fake := &fakeDrive{files: []*drive.File{
		{Id: "form1", Name: "Science Quiz", Parents: []string{"old1", "old2"}},
	}}
	c := newDriveTestClient(t, fake)

	if err := c.MoveForm("form1", "folder1"); err != nil {
		t.Fatalf("MoveForm() = %v", err)
	}
	if fake.addedParents != "folder1" {
		t.Errorf("addParents = %q, want folder1", fake.addedParents)
	}
	if fake.removedParents != "old1,old2" {
		t.Errorf("removeParents = %q, want old1,old2", fake.removedParents)
	}
}

func TestShareFormCreatesGrant(t *testing.T) {
	fake := &fakeDrive{}
	c := newDriveTestClient(t, fake)

	perms, err := c.ShareForm("form1", formflow.User("teacher@example.com"), formflow.RoleWriter)
	if err != nil {
		t.Fatalf("ShareForm() = %v", err)
	}
	if len(perms) != 1 {
		t.Fatalf("ShareForm() returned %d permissions, want 1", len(perms))
	}
	if perms[0].Type != "user" || perms[0].EmailAddress != "teacher@example.com" || perms[0].Role != "writer" {
		t.Errorf("permission = %+v, want user teacher@example.com writer", perms[0])
	}
}

func TestShareFormUpdatesExistingGrant(t *testing.T) {
	fake := &fakeDrive{perms: []*drive.Permission{
		{Id: "perm1", Type: "user", EmailAddress: "teacher@example.com", Role: "reader"},
	}}
	c := newDriveTestClient(t, fake)

	perms, err := c.ShareForm("form1", formflow.User("teacher@example.com"), formflow.RoleWriter)
	if err != nil {
		t.Fatalf("ShareForm() = %v", err)
	}
	if len(perms) != 1 {
		t.Fatalf("ShareForm() returned %d permissions, want 1", len(perms))
	}
	if perms[0].ID != "perm1" || perms[0].Role != "writer" {
		t.Errorf("permission = %+v, want perm1 upgraded to writer", perms[0])
	}
}

func TestUnshareFormDeletesMatchingGrants(t *testing.T) {
	fake := &fakeDrive{perms: []*drive.Permission{
		{Id: "perm1", Type: "user", EmailAddress: "viewer@example.com", Role: "reader"},
		{Id: "perm2", Type: "domain", Domain: "example.com", Role: "reader"},
	}}
	c := newDriveTestClient(t, fake)

	remained, err := c.UnshareForm("form1", formflow.User("viewer@example.com"))
	if err != nil {
		t.Fatalf("UnshareForm() = %v", err)
	}
	if len(fake.deletedPerms) != 1 || fake.deletedPerms[0] != "perm1" {
		t.Errorf("deleted = %v, want [perm1]", fake.deletedPerms)
	}
	if len(remained) != 1 || remained[0].Domain != "example.com" {
		t.Errorf("remained = %+v, want the domain grant", remained)
	}
}
