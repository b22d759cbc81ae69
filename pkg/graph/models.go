package graph

import (
	"strings"
	"time"
)

// DriveItemList represents a page of DriveItems.
type DriveItemList struct {
	Value    []DriveItem `json:"value"`
	NextLink string      `json:"@odata.nextLink,omitempty"`
}

// DriveItem represents a file or folder stored in a drive.
type DriveItem struct {
	ID                   string       `json:"id"`
	Name                 string       `json:"name"`
	Size                 int64        `json:"size"`
	WebURL               string       `json:"webUrl"`
	CreatedDateTime      time.Time    `json:"createdDateTime"`
	LastModifiedDateTime time.Time    `json:"lastModifiedDateTime"`
	ParentReference      *ItemRef     `json:"parentReference,omitempty"`
	Folder               *FolderFacet `json:"folder,omitempty"`
	File                 *FileFacet   `json:"file,omitempty"`
}

// IsFolder reports whether the item carries the folder facet.
func (d DriveItem) IsFolder() bool {
	return d.Folder != nil
}

// ItemRef is a reference to another item in the hierarchy.
type ItemRef struct {
	DriveID string `json:"driveId,omitempty"`
	ID      string `json:"id,omitempty"`
	Path    string `json:"path,omitempty"`
}

// FolderFacet provides folder metadata of an item.
type FolderFacet struct {
	ChildCount int `json:"childCount"`
}

// FileFacet provides file metadata of an item.
type FileFacet struct {
	MimeType string `json:"mimeType,omitempty"`
}

// Identity describes a single principal (user or group).
type Identity struct {
	ID          string `json:"id,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
	Email       string `json:"email,omitempty"`
}

// IdentitySet groups the identities a permission was granted to.
type IdentitySet struct {
	User  *Identity `json:"user,omitempty"`
	Group *Identity `json:"group,omitempty"`
}

// SharingLinkFacet describes link-based sharing on a permission.
type SharingLinkFacet struct {
	Type   string `json:"type"`
	Scope  string `json:"scope"`
	WebURL string `json:"webUrl,omitempty"`
}

// Permission represents a single access grant on a drive item.
type Permission struct {
	ID                    string            `json:"id"`
	Roles                 []string          `json:"roles"`
	GrantedToV2           *IdentitySet      `json:"grantedToV2,omitempty"`
	GrantedToIdentitiesV2 []IdentitySet     `json:"grantedToIdentitiesV2,omitempty"`
	Link                  *SharingLinkFacet `json:"link,omitempty"`
	InheritedFrom         *ItemRef          `json:"inheritedFrom,omitempty"`
	ExpirationDateTime    string            `json:"expirationDateTime,omitempty"`
}

// PermissionList represents a page of permissions.
type PermissionList struct {
	Value    []Permission `json:"value"`
	NextLink string       `json:"@odata.nextLink,omitempty"`
}

// IsOwner reports whether the permission carries the immutable owner role.
func (p Permission) IsOwner() bool {
	for _, r := range p.Roles {
		if strings.EqualFold(r, "owner") {
			return true
		}
	}
	return false
}

// IsInherited reports whether the permission belongs to an ancestor item
// rather than being attached directly. Inherited permissions cannot be
// removed individually.
func (p Permission) IsInherited() bool {
	return p.InheritedFrom != nil
}

// HasLink reports whether the permission is link-based.
func (p Permission) HasLink() bool {
	return p.Link != nil
}

// Principals collects every identity the permission grants access to.
// A single permission may carry multiple principals.
func (p Permission) Principals() []Identity {
	var out []Identity
	appendSet := func(set IdentitySet) {
		if set.User != nil {
			out = append(out, *set.User)
		}
		if set.Group != nil {
			out = append(out, *set.Group)
		}
	}
	if p.GrantedToV2 != nil {
		appendSet(*p.GrantedToV2)
	}
	for _, set := range p.GrantedToIdentitiesV2 {
		appendSet(set)
	}
	return out
}

// DriveRecipient identifies someone to share an item with.
type DriveRecipient struct {
	Email string `json:"email,omitempty"`
}

// InviteRequest is the payload for the invite endpoint.
type InviteRequest struct {
	Recipients     []DriveRecipient `json:"recipients"`
	Roles          []string         `json:"roles"`
	RequireSignIn  bool             `json:"requireSignIn"`
	SendInvitation bool             `json:"sendInvitation"`
	Message        string           `json:"message,omitempty"`
}

// InviteResponse is the invite endpoint's reply: the created permission(s).
type InviteResponse struct {
	Value []Permission `json:"value"`
}
