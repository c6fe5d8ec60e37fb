package core

import "math"

// Session settings rules: plain field replacement, no cross-field checks.
// Unknown enum values leave the state untouched.

func setTheme(s AppState, a SetTheme) AppState {
	if !a.Theme.Valid() {
		return s
	}
	s.Theme = a.Theme
	return s
}

// setZenMode leaving zen mode always silences the ambience.
func setZenMode(s AppState, a SetZenMode) AppState {
	if !a.Mode.Valid() {
		return s
	}
	s.ZenMode = a.Mode
	if a.Mode == ZenOff {
		s.SoundType = SoundNone
	}
	return s
}

func setSound(s AppState, a SetSound) AppState {
	if !a.Sound.Valid() {
		return s
	}
	s.SoundType = a.Sound
	return s
}

func togglePreview(s AppState, a TogglePreview) AppState {
	if a.Visible != nil {
		s.PreviewVisible = *a.Visible
	} else {
		s.PreviewVisible = !s.PreviewVisible
	}
	return s
}

func setEditorHeight(s AppState, a SetEditorHeight) AppState {
	if pct, ok := percent(a.Percent); ok {
		s.EditorHeight = pct
	}
	return s
}

func setPreviewHeight(s AppState, a SetPreviewHeight) AppState {
	if pct, ok := percent(a.Percent); ok {
		s.PreviewHeight = pct
	}
	return s
}

// percent accepts any finite value as given. NaN and infinities cannot be
// persisted and are rejected.
func percent(v float64) (float64, bool) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
