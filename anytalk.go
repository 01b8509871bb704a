package anytalk

import "context"

// This file is the thin embedding-API shim described in spec §6. It
// mirrors the C-compatible entry points (anytalk_init/_destroy/_start/
// _stop/_cancel and the event callback signature) for a host that wraps
// this package behind cgo, while the rest of the package exposes the
// idiomatic Go surface (NewContext, Context.Start/Stop/Cancel/Destroy)
// directly to native Go hosts. No cgo export layer itself is built here —
// that belongs to the host shell's packaging, which is out of scope
// (spec §1).

// EmbeddingCallback matches the C ABI's callback signature: userData,
// event type, NUL-terminated (in the C sense) UTF-8 text.
type EmbeddingCallback func(userData any, eventType EventType, text string)

// AnytalkInit mirrors anytalk_init. resourceID and mode may be nil, in
// which case they default to DefaultResourceID and DefaultMode (spec §6).
func AnytalkInit(appID, accessToken string, resourceID, mode *string, callback EmbeddingCallback, userData any) *Context {
	cfg := Config{AppID: appID, AccessToken: accessToken}
	if resourceID != nil {
		cfg.ResourceID = *resourceID
	}
	if mode != nil {
		cfg.Mode = Mode(*mode)
	}

	var cb EventCallback
	if callback != nil {
		cb = func(e Event) { callback(userData, e.Type, e.Text) }
	}

	return NewContext(cfg, cb)
}

// AnytalkDestroy mirrors anytalk_destroy.
func AnytalkDestroy(ctx *Context) {
	if ctx == nil {
		return
	}
	ctx.Destroy()
}

// AnytalkStart mirrors anytalk_start: 0 on success, -1 on failure.
func AnytalkStart(ctx *Context) int {
	if ctx == nil {
		return -1
	}
	if err := ctx.Start(context.Background()); err != nil {
		return -1
	}
	return 0
}

// AnytalkStop mirrors anytalk_stop: 0 on success, -1 on failure.
func AnytalkStop(ctx *Context) int {
	if ctx == nil {
		return -1
	}
	ctx.Stop()
	return 0
}

// AnytalkCancel mirrors anytalk_cancel: 0 on success, -1 on failure.
func AnytalkCancel(ctx *Context) int {
	if ctx == nil {
		return -1
	}
	ctx.Cancel()
	return 0
}
