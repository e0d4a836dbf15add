package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/aussiebroadwan/devicelocator/internal/dashboard/service"
	"github.com/aussiebroadwan/devicelocator/pkg/httpx"
	"github.com/aussiebroadwan/devicelocator/pkg/slogx"
	"github.com/aussiebroadwan/devicelocator/pkg/voiceadmin"
)

const maxActionBodySize = 4 << 10

// DeviceHandler serves the JSON device endpoints used by the device pages.
type DeviceHandler struct {
	Sessions *service.SessionService
	API      VoiceAdmin

	views *views
}

// DeviceActionRequest is the body of /reboot-device and /resync-device.
type DeviceActionRequest struct {
	DeviceKey string `json:"device_key" example:"b5a0c5e2-1f4d-4a62-9c4b-2f0f3b3c9d11"`
}

type deviceAction struct {
	name string // used in messages
	call func(ctx context.Context, token, deviceID string) error
}

func (h *DeviceHandler) reboot() deviceAction {
	return deviceAction{name: "reboot", call: h.API.RebootDevice}
}

func (h *DeviceHandler) resync() deviceAction {
	return deviceAction{name: "resync", call: h.API.ResyncDevice}
}

func writeActionError(w http.ResponseWriter, status int, msg string) {
	httpx.WriteJSON(w, status, voiceadmin.ActionResult{Success: false, Error: msg})
}

// token returns a valid access token for the session or writes the 401.
func (h *DeviceHandler) token(w http.ResponseWriter, r *http.Request) (string, bool) {
	ctx := r.Context()

	rec, err := h.Sessions.GetValidToken(ctx, httpx.SessionIDFromContext(ctx))
	if err != nil {
		f := h.views.classify(ctx, err)
		if f.Reauth {
			writeActionError(w, http.StatusUnauthorized, "Not authenticated")
			return "", false
		}
		writeActionError(w, f.Status, f.Message)
		return "", false
	}
	return rec.AccessToken(), true
}

func (h *DeviceHandler) run(w http.ResponseWriter, r *http.Request, action deviceAction, deviceID, token string) {
	ctx := r.Context()

	if err := action.call(ctx, token, deviceID); err != nil {
		f := h.views.classify(ctx, err)
		switch {
		case f.Reauth:
			writeActionError(w, http.StatusUnauthorized, "Not authenticated")
		case f.NotFound:
			writeActionError(w, http.StatusNotFound, "Device not found")
		default:
			writeActionError(w, f.Status, "Failed to "+action.name+" device: "+f.Message)
		}
		return
	}

	slogx.FromContext(ctx).Info("device action requested", "action", action.name, "device", deviceID)
	httpx.WriteJSON(w, http.StatusOK, voiceadmin.ActionResult{
		Success: true,
		Message: "Device " + action.name + " initiated successfully",
	})
}

// byPath runs action on the device named in the URL. The session must have
// an account selected.
func (h *DeviceHandler) byPath(w http.ResponseWriter, r *http.Request, action deviceAction) {
	token, ok := h.token(w, r)
	if !ok {
		return
	}
	if sessionFromContext(r.Context()).AccountKey == "" {
		writeActionError(w, http.StatusBadRequest, "No account key in session")
		return
	}
	h.run(w, r, action, r.PathValue("id"), token)
}

// byBody runs action on the device named by the JSON body.
func (h *DeviceHandler) byBody(w http.ResponseWriter, r *http.Request, action deviceAction) {
	token, ok := h.token(w, r)
	if !ok {
		return
	}

	var req DeviceActionRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxActionBodySize)).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeActionError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	deviceKey := strings.TrimSpace(req.DeviceKey)
	if deviceKey == "" {
		writeActionError(w, http.StatusBadRequest, "Device key is required")
		return
	}

	h.run(w, r, action, deviceKey, token)
}

// Reboot godoc
//
//	@Summary		Reboot a device
//	@Description	Asks GoTo to reboot the device. Requires an authenticated session with an account key selected.
//	@Tags			Devices
//	@Produce		json
//	@Param			id	path		string					true	"Device ID"
//	@Success		200	{object}	voiceadmin.ActionResult	"reboot requested"
//	@Failure		400	{object}	voiceadmin.ActionResult	"no account key in session"
//	@Failure		401	{object}	voiceadmin.ActionResult	"not authenticated"
//	@Failure		404	{object}	voiceadmin.ActionResult	"device not found"
//	@Failure		429	{object}	httpx.ErrorResponse		"rate limit exceeded"
//	@Failure		502	{object}	voiceadmin.ActionResult	"GoTo rejected the request"
//	@Failure		503	{object}	voiceadmin.ActionResult	"GoTo unreachable"
//	@Router			/device/{id}/reboot [post].
func (h *DeviceHandler) Reboot(w http.ResponseWriter, r *http.Request) {
	h.byPath(w, r, h.reboot())
}

// Resync godoc
//
//	@Summary		Resync a device
//	@Description	Asks GoTo to push the current configuration to the device.
//	@Tags			Devices
//	@Produce		json
//	@Param			id	path		string					true	"Device ID"
//	@Success		200	{object}	voiceadmin.ActionResult	"resync requested"
//	@Failure		400	{object}	voiceadmin.ActionResult	"no account key in session"
//	@Failure		401	{object}	voiceadmin.ActionResult	"not authenticated"
//	@Failure		404	{object}	voiceadmin.ActionResult	"device not found"
//	@Failure		429	{object}	httpx.ErrorResponse		"rate limit exceeded"
//	@Failure		502	{object}	voiceadmin.ActionResult	"GoTo rejected the request"
//	@Failure		503	{object}	voiceadmin.ActionResult	"GoTo unreachable"
//	@Router			/device/{id}/resync [post].
func (h *DeviceHandler) Resync(w http.ResponseWriter, r *http.Request) {
	h.byPath(w, r, h.resync())
}

// RebootByKey godoc
//
//	@Summary	Reboot a device by key
//	@Tags		Devices
//	@Accept		json
//	@Produce	json
//	@Param		request	body		DeviceActionRequest		true	"Device to reboot"
//	@Success	200		{object}	voiceadmin.ActionResult	"reboot requested"
//	@Failure	400		{object}	voiceadmin.ActionResult	"device key is required"
//	@Failure	401		{object}	voiceadmin.ActionResult	"not authenticated"
//	@Failure	404		{object}	voiceadmin.ActionResult	"device not found"
//	@Failure	429		{object}	httpx.ErrorResponse		"rate limit exceeded"
//	@Router		/reboot-device [post].
func (h *DeviceHandler) RebootByKey(w http.ResponseWriter, r *http.Request) {
	h.byBody(w, r, h.reboot())
}

// ResyncByKey godoc
//
//	@Summary	Resync a device by key
//	@Tags		Devices
//	@Accept		json
//	@Produce	json
//	@Param		request	body		DeviceActionRequest		true	"Device to resync"
//	@Success	200		{object}	voiceadmin.ActionResult	"resync requested"
//	@Failure	400		{object}	voiceadmin.ActionResult	"device key is required"
//	@Failure	401		{object}	voiceadmin.ActionResult	"not authenticated"
//	@Failure	404		{object}	voiceadmin.ActionResult	"device not found"
//	@Failure	429		{object}	httpx.ErrorResponse		"rate limit exceeded"
//	@Router		/resync-device [post].
func (h *DeviceHandler) ResyncByKey(w http.ResponseWriter, r *http.Request) {
	h.byBody(w, r, h.resync())
}

// Get godoc
//
//	@Summary	Device details
//	@Tags		Devices
//	@Produce	json
//	@Param		id	path		string				true	"Device ID"
//	@Success	200	{object}	voiceadmin.Device	"device"
//	@Failure	401	{object}	httpx.ErrorResponse	"not authenticated"
//	@Failure	404	{object}	httpx.ErrorResponse	"device not found"
//	@Failure	502	{object}	httpx.ErrorResponse	"GoTo rejected the request"
//	@Failure	503	{object}	httpx.ErrorResponse	"GoTo unreachable"
//	@Router		/api/device/{id} [get].
func (h *DeviceHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	rec, err := h.Sessions.GetValidToken(ctx, httpx.SessionIDFromContext(ctx))
	if err != nil {
		f := h.views.classify(ctx, err)
		if f.Reauth {
			httpx.WriteError(w, http.StatusUnauthorized, "Not authenticated", "")
			return
		}
		httpx.WriteError(w, f.Status, f.Message, "")
		return
	}

	device, err := h.API.GetDevice(ctx, rec.AccessToken(), r.PathValue("id"))
	if err != nil {
		f := h.views.classify(ctx, err)
		switch {
		case f.Reauth:
			httpx.WriteError(w, http.StatusUnauthorized, "Not authenticated", "")
		case f.NotFound:
			httpx.WriteError(w, http.StatusNotFound, "Device not found", "")
		default:
			httpx.WriteError(w, f.Status, f.Message, "")
		}
		return
	}

	httpx.WriteJSON(w, http.StatusOK, device)
}
