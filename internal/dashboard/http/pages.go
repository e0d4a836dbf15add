package http

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/aussiebroadwan/devicelocator/internal/dashboard/service"
	"github.com/aussiebroadwan/devicelocator/pkg/slogx"
	"github.com/aussiebroadwan/devicelocator/pkg/voiceadmin"
)

// VoiceAdmin is the subset of voiceadmin.Client used by the handlers.
type VoiceAdmin interface {
	service.DirectoryAPI

	ListLocationUsers(ctx context.Context, token, locationID string, opts voiceadmin.PageOptions) (*voiceadmin.Page[voiceadmin.User], error)
	ListDevices(ctx context.Context, token, accountKey string, opts voiceadmin.PageOptions) (*voiceadmin.Page[voiceadmin.Device], error)
	GetDevice(ctx context.Context, token, deviceID string) (*voiceadmin.Device, error)
	GetDeviceButtonConfiguration(ctx context.Context, token, deviceID string) (*voiceadmin.ButtonConfiguration, error)
	RebootDevice(ctx context.Context, token, deviceID string) error
	ResyncDevice(ctx context.Context, token, deviceID string) error
	ListDeviceModels(ctx context.Context, token string, opts voiceadmin.PageOptions) (*voiceadmin.Page[voiceadmin.DeviceModel], error)
	GetExtension(ctx context.Context, token, extensionID string) (*voiceadmin.Extension, error)
	ListPhoneNumbers(ctx context.Context, token, accountKey string, opts voiceadmin.PageOptions) (*voiceadmin.Page[voiceadmin.PhoneNumber], error)
	GetPhoneNumber(ctx context.Context, token, phoneNumberID string) (*voiceadmin.PhoneNumber, error)
}

const (
	msgAuthenticateFirst = "Please authenticate first."
	msgAccountKeyFirst   = "Please set your account key in the dashboard first."
)

// PageHandler serves the HTML pages.
type PageHandler struct {
	Sessions  *service.SessionService
	Directory *service.DirectoryService
	API       VoiceAdmin

	views *views
}

// pageAuth is what a page needs to call the Voice Admin API.
type pageAuth struct {
	Token      string
	AccountKey string
}

// authorize resolves a valid access token for the request's session. When
// needAccount is set an account key must be known too; a key passed as
// ?account_key= is saved to the session first. On failure the response has
// already been written. The returned request carries the updated session.
func (h *PageHandler) authorize(w http.ResponseWriter, r *http.Request, needAccount bool) (*http.Request, pageAuth, bool) {
	ctx := r.Context()
	sess := sessionFromContext(ctx)

	if !h.Sessions.IsAuthenticated(ctx, sess.ID) {
		h.views.redirect(w, r, "/", flashWarning, msgAuthenticateFirst)
		return r, pageAuth{}, false
	}

	rec, err := h.Sessions.GetValidToken(ctx, sess.ID)
	if err != nil {
		h.views.pageError(w, r, err, "", "")
		return r, pageAuth{}, false
	}

	r = h.applyAccountOverride(r)
	accountKey := sessionFromContext(r.Context()).AccountKey

	if needAccount && accountKey == "" {
		h.views.redirect(w, r, "/dashboard", flashWarning, msgAccountKeyFirst)
		return r, pageAuth{}, false
	}

	return r, pageAuth{Token: rec.AccessToken(), AccountKey: accountKey}, true
}

// applyAccountOverride saves an ?account_key= query parameter to the session.
func (h *PageHandler) applyAccountOverride(r *http.Request) *http.Request {
	ctx := r.Context()
	sess := sessionFromContext(ctx)

	q := strings.TrimSpace(r.URL.Query().Get("account_key"))
	if q == "" || q == sess.AccountKey {
		return r
	}
	if err := h.Sessions.SetAccountKey(ctx, sess.ID, q); err != nil {
		slogx.FromContext(ctx).Warn("failed to save account key", "error", err)
	}
	sess.AccountKey = q
	return r.WithContext(withSession(ctx, sess))
}

func pageOptions(r *http.Request) voiceadmin.PageOptions {
	return voiceadmin.PageOptions{PageMarker: r.URL.Query().Get("page_marker")}
}

// ============================================================================
// Landing and dashboard
// ============================================================================

func (h *PageHandler) Index(w http.ResponseWriter, r *http.Request) {
	h.views.render(w, r, http.StatusOK, "index", "Home", nil)
}

func (h *PageHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := sessionFromContext(ctx)

	if !h.Sessions.IsAuthenticated(ctx, sess.ID) {
		h.views.redirect(w, r, "/", flashWarning, msgAuthenticateFirst)
		return
	}

	r = h.applyAccountOverride(r)
	h.views.render(w, r, http.StatusOK, "dashboard", "Dashboard", nil)
}

// SetAccountKey handles the account key form on the dashboard.
func (h *PageHandler) SetAccountKey(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := sessionFromContext(ctx)

	if !h.Sessions.IsAuthenticated(ctx, sess.ID) {
		h.views.redirect(w, r, "/", flashWarning, msgAuthenticateFirst)
		return
	}

	accountKey := strings.TrimSpace(r.PostFormValue("account_key"))
	if accountKey == "" {
		h.views.redirect(w, r, "/dashboard", flashError, "Please enter an account key.")
		return
	}

	if err := h.Sessions.SetAccountKey(ctx, sess.ID, accountKey); err != nil {
		slogx.FromContext(ctx).Error("failed to save account key", "error", err)
		h.views.renderError(w, r, http.StatusInternalServerError, "The account key could not be saved.")
		return
	}

	h.views.redirect(w, r, "/dashboard", flashSuccess, "Account key updated successfully!")
}

// ============================================================================
// Lists
// ============================================================================

type listPage[T any] struct {
	Items          []T
	NextPageMarker string
	NextPageURL    string
}

func newListPage[T any](r *http.Request, page *voiceadmin.Page[T]) listPage[T] {
	lp := listPage[T]{Items: page.Items, NextPageMarker: page.NextPageMarker}
	if page.NextPageMarker != "" {
		q := url.Values{"page_marker": {page.NextPageMarker}}
		lp.NextPageURL = r.URL.Path + "?" + q.Encode()
	}
	return lp
}

func (h *PageHandler) Locations(w http.ResponseWriter, r *http.Request) {
	r, auth, ok := h.authorize(w, r, true)
	if !ok {
		return
	}

	page, err := h.API.ListLocations(r.Context(), auth.Token, auth.AccountKey, pageOptions(r))
	if err != nil {
		h.views.pageError(w, r, err, "", "")
		return
	}

	h.views.render(w, r, http.StatusOK, "locations", "Locations", newListPage(r, page))
}

func (h *PageHandler) Devices(w http.ResponseWriter, r *http.Request) {
	r, auth, ok := h.authorize(w, r, true)
	if !ok {
		return
	}

	page, err := h.API.ListDevices(r.Context(), auth.Token, auth.AccountKey, pageOptions(r))
	if err != nil {
		h.views.pageError(w, r, err, "", "")
		return
	}

	h.views.render(w, r, http.StatusOK, "devices", "Devices", newListPage(r, page))
}

func (h *PageHandler) DeviceLocations(w http.ResponseWriter, r *http.Request) {
	r, auth, ok := h.authorize(w, r, true)
	if !ok {
		return
	}

	groups, err := h.Directory.DevicesByLocation(r.Context(), auth.Token, auth.AccountKey)
	if err != nil {
		h.views.pageError(w, r, err, "", "")
		return
	}

	h.views.render(w, r, http.StatusOK, "device_locations", "Devices by Location", groups)
}

func (h *PageHandler) PhoneNumbers(w http.ResponseWriter, r *http.Request) {
	r, auth, ok := h.authorize(w, r, true)
	if !ok {
		return
	}

	page, err := h.API.ListPhoneNumbers(r.Context(), auth.Token, auth.AccountKey, pageOptions(r))
	if err != nil {
		h.views.pageError(w, r, err, "", "")
		return
	}

	h.views.render(w, r, http.StatusOK, "phone_numbers", "Phone Numbers", newListPage(r, page))
}

type extensionGroup struct {
	Type       string
	Extensions []voiceadmin.Extension
}

func (h *PageHandler) Extensions(w http.ResponseWriter, r *http.Request) {
	r, auth, ok := h.authorize(w, r, true)
	if !ok {
		return
	}

	byType, types, err := h.Directory.ExtensionsByType(r.Context(), auth.Token, auth.AccountKey)
	if err != nil {
		h.views.pageError(w, r, err, "", "")
		return
	}

	groups := make([]extensionGroup, 0, len(types))
	for _, t := range types {
		groups = append(groups, extensionGroup{Type: t, Extensions: byType[t]})
	}

	h.views.render(w, r, http.StatusOK, "extensions", "Extensions", groups)
}

func (h *PageHandler) DeviceModels(w http.ResponseWriter, r *http.Request) {
	r, auth, ok := h.authorize(w, r, false)
	if !ok {
		return
	}

	page, err := h.API.ListDeviceModels(r.Context(), auth.Token, pageOptions(r))
	if err != nil {
		h.views.pageError(w, r, err, "", "")
		return
	}

	h.views.render(w, r, http.StatusOK, "device_models", "Device Models", newListPage(r, page))
}

func (h *PageHandler) DeviceManagement(w http.ResponseWriter, r *http.Request) {
	r, auth, ok := h.authorize(w, r, true)
	if !ok {
		return
	}

	page, err := h.API.ListDevices(r.Context(), auth.Token, auth.AccountKey, pageOptions(r))
	if err != nil {
		h.views.pageError(w, r, err, "", "")
		return
	}

	h.views.render(w, r, http.StatusOK, "device_management", "Device Management", newListPage(r, page))
}

// ============================================================================
// Details
// ============================================================================

type locationDetail struct {
	ID      string
	Devices []voiceadmin.Device
	Users   []voiceadmin.User
}

func (h *PageHandler) LocationDetail(w http.ResponseWriter, r *http.Request) {
	r, auth, ok := h.authorize(w, r, false)
	if !ok {
		return
	}

	ctx := r.Context()
	id := r.PathValue("id")

	devices, err := h.API.ListLocationDevices(ctx, auth.Token, id, voiceadmin.PageOptions{})
	if err != nil {
		h.views.pageError(w, r, err, "/locations", "Location not found.")
		return
	}
	users, err := h.API.ListLocationUsers(ctx, auth.Token, id, voiceadmin.PageOptions{})
	if err != nil {
		h.views.pageError(w, r, err, "/locations", "Location not found.")
		return
	}

	h.views.render(w, r, http.StatusOK, "location_detail", "Location", locationDetail{
		ID:      id,
		Devices: devices.Items,
		Users:   users.Items,
	})
}

type deviceDetail struct {
	Device  *voiceadmin.Device
	Buttons []voiceadmin.Button
}

func (h *PageHandler) DeviceDetail(w http.ResponseWriter, r *http.Request) {
	r, auth, ok := h.authorize(w, r, true)
	if !ok {
		return
	}

	ctx := r.Context()
	key := r.PathValue("key")

	device, err := h.API.GetDevice(ctx, auth.Token, key)
	if err != nil {
		h.views.pageError(w, r, err, "/devices", "Device not found.")
		return
	}

	detail := deviceDetail{Device: device}

	// Not every device type has programmable buttons.
	buttons, err := h.API.GetDeviceButtonConfiguration(ctx, auth.Token, key)
	switch {
	case err == nil:
		detail.Buttons = buttons.Buttons
	case !errors.Is(err, voiceadmin.ErrNotFound):
		slogx.FromContext(ctx).Warn("failed to load button configuration", "device", key, "error", err)
	}

	h.views.render(w, r, http.StatusOK, "device_detail", "Device", detail)
}

// DeviceLocation redirects to the location a device is assigned to.
func (h *PageHandler) DeviceLocation(w http.ResponseWriter, r *http.Request) {
	r, auth, ok := h.authorize(w, r, true)
	if !ok {
		return
	}

	key := r.PathValue("key")

	device, err := h.API.GetDevice(r.Context(), auth.Token, key)
	if err != nil {
		h.views.pageError(w, r, err, "/devices", "Device or location not found.")
		return
	}
	if device.Location == nil {
		h.views.redirect(w, r, "/devices", flashError, "Device or location not found.")
		return
	}

	locationID := device.Location.Ident()
	if locationID == "" {
		h.views.redirect(w, r, "/device/"+url.PathEscape(key), flashWarning, "Location information not available for this device.")
		return
	}

	http.Redirect(w, r, "/location/"+url.PathEscape(locationID), http.StatusSeeOther)
}

func (h *PageHandler) PhoneNumberDetail(w http.ResponseWriter, r *http.Request) {
	r, auth, ok := h.authorize(w, r, false)
	if !ok {
		return
	}

	number, err := h.API.GetPhoneNumber(r.Context(), auth.Token, r.PathValue("id"))
	if err != nil {
		h.views.pageError(w, r, err, "/phone-numbers", "Phone number not found or access denied.")
		return
	}

	h.views.render(w, r, http.StatusOK, "phone_number_detail", "Phone Number", number)
}

func (h *PageHandler) ExtensionDetail(w http.ResponseWriter, r *http.Request) {
	r, auth, ok := h.authorize(w, r, false)
	if !ok {
		return
	}

	ext, err := h.API.GetExtension(r.Context(), auth.Token, r.PathValue("id"))
	if err != nil {
		h.views.pageError(w, r, err, "/extensions", "Extension not found.")
		return
	}

	h.views.render(w, r, http.StatusOK, "extension_detail", "Extension", ext)
}
