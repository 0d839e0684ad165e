package agent

// Grab sends clipboard-grab for the given ordered type list and marks the
// client as the current clipboard owner (§4.8, §6 clipboard_grab).
func (t *Tunnel) Grab(types []ClipboardType) error {
	s := t.State
	s.mu.Lock()
	cbSelection := s.cbSelection
	s.clientGrabbed = true
	s.mu.Unlock()

	return t.SendMessage(MsgClipboardGrab, encodeGrab(types, cbSelection))
}

// Release sends clipboard-release and clears the client's ownership flag
// (§6 clipboard_release).
func (t *Tunnel) Release() error {
	s := t.State
	s.mu.Lock()
	s.clientGrabbed = false
	s.mu.Unlock()

	return t.SendMessage(MsgClipboardRelease, nil)
}

// Request sends clipboard-request for the given type (§6 clipboard_request).
func (t *Tunnel) Request(typ ClipboardType) error {
	s := t.State
	s.mu.Lock()
	cbSelection := s.cbSelection
	s.mu.Unlock()

	return t.SendMessage(MsgClipboardRequest, encodeRequest(typ, cbSelection))
}

// DataStart begins an outbound clipboard payload of the given total size
// (§6 clipboard_data_start), enqueuing the header plus the type-prefix
// fragment.
func (t *Tunnel) DataStart(typ ClipboardType, size uint32) error {
	s := t.State
	s.mu.Lock()
	cbSelection := s.cbSelection
	s.mu.Unlock()

	prefix := encodeClipboardPrefix(typ, cbSelection)
	total := uint32(len(prefix)) + size
	if err := t.StartMsg(MsgClipboard, total); err != nil {
		return err
	}
	return t.WriteMsg(prefix, len(prefix))
}

// Data appends one chunk of an in-progress outbound clipboard payload
// (§6 clipboard_data). Call DataStart first.
func (t *Tunnel) Data(chunk []byte) error {
	return t.WriteMsg(chunk, len(chunk))
}
