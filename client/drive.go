package client

import (
	"context"
	"fmt"
	"strings"

	"github.com/formflow/go-formflow"
	"go.uber.org/zap"
	"google.golang.org/api/drive/v3"
)

const (
	mimeTypeGoogleForm   = "application/vnd.google-apps.form"
	mimeTypeGoogleFolder = "application/vnd.google-apps.folder"

	driveFileFields  = "id,name,mimeType,parents,modifiedTime,webViewLink"
	driveFilesFields = "nextPageToken,files(id,name,mimeType,parents,modifiedTime,webViewLink)"

	drivePermissionFields  = "id,type,emailAddress,domain,role"
	drivePermissionsFields = "nextPageToken,permissions(id,type,emailAddress,domain,role)"

	granteeTypeUser   = "user"
	granteeTypeGroup  = "group"
	granteeTypeDomain = "domain"
	granteeTypeAnyone = "anyone"
)

// DriveFile is a form or folder as Drive sees it.
type DriveFile struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	MimeType    string `json:"mime_type"`
	WebViewLink string `json:"web_view_link,omitempty"`
}

// Permission is one Drive access grant on a form.
type Permission struct {
	ID           string `json:"id"`
	Type         string `json:"type"`
	EmailAddress string `json:"email_address,omitempty"`
	Domain       string `json:"domain,omitempty"`
	Role         string `json:"role"`
}

func escapeQuery(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "'", `\'`)
	return s
}

func queryFiles(s *drive.Service, query string) (results []*drive.File, err error) {
	err = s.Files.List().
		SupportsAllDrives(true).
		IncludeItemsFromAllDrives(true).
		Q(query).
		Fields(driveFilesFields).
		Pages(context.Background(), func(list *drive.FileList) error {
			results = append(results, list.Files...)
			return nil
		})
	if err != nil {
		return nil, wrapAPIError("failed to query files", err)
	}
	return results, nil
}

func newDriveFiles(files []*drive.File) []DriveFile {
	out := []DriveFile{}
	for _, f := range files {
		out = append(out, DriveFile{
			ID:          f.Id,
			Name:        f.Name,
			MimeType:    f.MimeType,
			WebViewLink: f.WebViewLink,
		})
	}
	return out
}

// ListForms returns every non-trashed form visible to the authenticated
// account, optionally restricted to forms whose name contains nameFilter.
func (c *Client) ListForms(nameFilter string) ([]DriveFile, error) {
	query := fmt.Sprintf("mimeType = '%s' and trashed = false", mimeTypeGoogleForm)
	if nameFilter != "" {
		query += fmt.Sprintf(" and name contains '%s'", escapeQuery(nameFilter))
	}
	files, err := queryFiles(c.drive, query)
	if err != nil {
		return nil, err
	}
	return newDriveFiles(files), nil
}

// CreateFolder creates a Drive folder, under parentID when given.
func (c *Client) CreateFolder(name string, parentID string) (*DriveFile, error) {
	if err := c.gate.Allow(); err != nil {
		return nil, err
	}
	file := &drive.File{
		Name:     name,
		MimeType: mimeTypeGoogleFolder,
	}
	if parentID != "" {
		file.Parents = []string{parentID}
	}
	created, err := c.drive.Files.Create(file).
		SupportsAllDrives(true).
		Fields(driveFileFields).
		Do()
	if err != nil {
		return nil, wrapAPIError("failed to create folder", err)
	}
	return &DriveFile{
		ID:          created.Id,
		Name:        created.Name,
		MimeType:    created.MimeType,
		WebViewLink: created.WebViewLink,
	}, nil
}

// MoveForm reparents the form under folderID, detaching it from its current
// parents first.
func (c *Client) MoveForm(formID formflow.FormID, folderID string) error {
	if err := c.gate.Allow(); err != nil {
		return err
	}
	file, err := c.drive.Files.Get(string(formID)).
		SupportsAllDrives(true).
		Fields(driveFileFields).
		Do()
	if err != nil {
		return wrapAPIError("failed to get form file", err)
	}
	_, err = c.drive.Files.Update(string(formID), nil).
		SupportsAllDrives(true).
		AddParents(folderID).
		RemoveParents(strings.Join(file.Parents, ",")).
		Fields(driveFileFields).
		Do()
	if err != nil {
		return wrapAPIError("failed to move form", err)
	}
	return nil
}

// ShareForm grants role on the form to grantee. An existing grant for the
// same grantee is updated in place instead of duplicated.
func (c *Client) ShareForm(formID formflow.FormID, grantee formflow.Grantee, role formflow.Role) ([]Permission, error) {
	if err := c.gate.Allow(); err != nil {
		return nil, err
	}
	perms, err := listPermissions(c.drive, string(formID))
	if err != nil {
		return nil, err
	}

	var updated bool
	for _, perm := range perms {
		if granteeMatch(perm, grantee) {
			updated = true
			perm.Role = string(role)
			_, err := c.drive.Permissions.Update(string(formID), perm.Id, &drive.Permission{Role: perm.Role}).
				SupportsAllDrives(true).
				Fields(drivePermissionFields).
				Do()
			if err != nil {
				return nil, wrapAPIError("failed to update permission", err)
			}
		}
	}

	if !updated {
		var email, domain, granteeType string
		switch grantee := grantee.(type) {
		case formflow.GranteeUser:
			email, granteeType = grantee.Email, granteeTypeUser
		case formflow.GranteeGroup:
			email, granteeType = grantee.Email, granteeTypeGroup
		case formflow.GranteeDomain:
			domain, granteeType = grantee.Domain, granteeTypeDomain
		case formflow.GranteeAnyone:
			granteeType = granteeTypeAnyone
		}
		perm, err := c.drive.Permissions.Create(string(formID), &drive.Permission{
			EmailAddress: email,
			Domain:       domain,
			Type:         granteeType,
			Role:         string(role),
		}).
			SupportsAllDrives(true).
			Fields(drivePermissionFields).
			Do()
		if err != nil {
			return nil, wrapAPIError("failed to create permission", err)
		}
		perms = append(perms, perm)
	}

	c.logger.Info("form shared",
		zap.String("form_id", string(formID)),
		zap.String("role", string(role)))
	return newPermissions(perms), nil
}

// UnshareForm revokes every grant held by grantee on the form and returns
// the remaining permissions.
func (c *Client) UnshareForm(formID formflow.FormID, grantee formflow.Grantee) ([]Permission, error) {
	if err := c.gate.Allow(); err != nil {
		return nil, err
	}
	perms, err := listPermissions(c.drive, string(formID))
	if err != nil {
		return nil, err
	}

	remained := []*drive.Permission{}
	for _, perm := range perms {
		if granteeMatch(perm, grantee) {
			err := c.drive.Permissions.Delete(string(formID), perm.Id).
				SupportsAllDrives(true).
				Do()
			if err != nil {
				return nil, wrapAPIError("failed to delete permission", err)
			}
		} else {
			remained = append(remained, perm)
		}
	}
	return newPermissions(remained), nil
}

func listPermissions(service *drive.Service, fileID string) ([]*drive.Permission, error) {
	var permissions []*drive.Permission
	err := service.Permissions.List(fileID).
		SupportsAllDrives(true).
		Fields(drivePermissionsFields).
		Pages(context.Background(), func(list *drive.PermissionList) error {
			permissions = append(permissions, list.Permissions...)
			return nil
		})
	if err != nil {
		return nil, wrapAPIError("failed to list permissions", err)
	}
	return permissions, nil
}

func granteeMatch(perm *drive.Permission, grantee formflow.Grantee) bool {
	switch grantee := grantee.(type) {
	case formflow.GranteeUser:
		return perm.Type == granteeTypeUser && perm.EmailAddress == grantee.Email
	case formflow.GranteeGroup:
		return perm.Type == granteeTypeGroup && perm.EmailAddress == grantee.Email
	case formflow.GranteeDomain:
		return perm.Type == granteeTypeDomain && perm.Domain == grantee.Domain
	case formflow.GranteeAnyone:
		return perm.Type == granteeTypeAnyone
	}
	return false
}

func newPermissions(perms []*drive.Permission) []Permission {
	out := []Permission{}
	for _, p := range perms {
		out = append(out, Permission{
			ID:           p.Id,
			Type:         p.Type,
			EmailAddress: p.EmailAddress,
			Domain:       p.Domain,
			Role:         p.Role,
		})
	}
	return out
}
