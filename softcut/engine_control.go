package softcut

// Index-addressed control and query wrappers. Setters return ErrInvalidVoice
// or ErrClosed; queries return zero values for an invalid index.

// SetRate sets the playback rate of voice v. See Voice.SetRate.
func (e *Engine) SetRate(v int, rate float64) error {
	return e.apply(v, func(vc *Voice) { vc.SetRate(rate) })
}

// SetLoopStart sets the loop start of voice v in seconds. See Voice.SetLoopStart.
func (e *Engine) SetLoopStart(v int, seconds float64) error {
	vc, err := e.voice(v)
	if err != nil {
		return err
	}
	return e.logLoop(v, vc.SetLoopStart(seconds))
}

// SetLoopEnd sets the loop end of voice v in seconds. See Voice.SetLoopEnd.
func (e *Engine) SetLoopEnd(v int, seconds float64) error {
	vc, err := e.voice(v)
	if err != nil {
		return err
	}
	return e.logLoop(v, vc.SetLoopEnd(seconds))
}

// SetLoopFlag turns looping on or off for voice v. See Voice.SetLoopFlag.
func (e *Engine) SetLoopFlag(v int, on bool) error {
	vc, err := e.voice(v)
	if err != nil {
		return err
	}
	return e.logLoop(v, vc.SetLoopFlag(on))
}

func (e *Engine) logLoop(v int, err error) error {
	if err != nil {
		vc := e.voices[v]
		e.logger.Warn("degenerate loop region",
			"voice", v,
			"start", vc.ctl.loopStart.Load(),
			"end", vc.ctl.loopEnd.Load())
	}
	return err
}

// SetFadeTime sets the loop crossfade of voice v in seconds. See Voice.SetFadeTime.
func (e *Engine) SetFadeTime(v int, seconds float64) error {
	return e.apply(v, func(vc *Voice) { vc.SetFadeTime(seconds) })
}

// SetRecLevel sets the record level of voice v. See Voice.SetRecLevel.
func (e *Engine) SetRecLevel(v int, amp float64) error {
	return e.apply(v, func(vc *Voice) { vc.SetRecLevel(amp) })
}

// SetPreLevel sets how much of the old material voice v keeps. See Voice.SetPreLevel.
func (e *Engine) SetPreLevel(v int, amp float64) error {
	return e.apply(v, func(vc *Voice) { vc.SetPreLevel(amp) })
}

// SetRecFlag turns recording on or off for voice v. See Voice.SetRecFlag.
func (e *Engine) SetRecFlag(v int, on bool) error {
	return e.apply(v, func(vc *Voice) { vc.SetRecFlag(on) })
}

// SetRecOnceFlag arms voice v to record one loop traversal. See Voice.SetRecOnceFlag.
func (e *Engine) SetRecOnceFlag(v int, on bool) error {
	return e.apply(v, func(vc *Voice) { vc.SetRecOnceFlag(on) })
}

// SetPlayFlag turns playback on or off for voice v. See Voice.SetPlayFlag.
func (e *Engine) SetPlayFlag(v int, on bool) error {
	return e.apply(v, func(vc *Voice) { vc.SetPlayFlag(on) })
}

// CutToPos jumps voice v to seconds at the start of its next block.
func (e *Engine) CutToPos(v int, seconds float64) error {
	return e.apply(v, func(vc *Voice) { vc.CutToPos(seconds) })
}

// StopVoice clears play and record on voice v.
func (e *Engine) StopVoice(v int) error {
	return e.apply(v, func(vc *Voice) { vc.Stop() })
}

// ResetVoice restores the defaults of voice v only. Sync relations are kept.
func (e *Engine) ResetVoice(v int) error {
	return e.apply(v, func(vc *Voice) { vc.Reset() })
}

// SetPreFilter sets one pre-filter control of voice v.
func (e *Engine) SetPreFilter(v int, p FilterParam, x float64) error {
	return e.apply(v, func(vc *Voice) { vc.SetPreFilter(p, x) })
}

// SetPostFilter sets one post-filter control of voice v.
func (e *Engine) SetPostFilter(v int, p FilterParam, x float64) error {
	return e.apply(v, func(vc *Voice) { vc.SetPostFilter(p, x) })
}

// SetPreFilterFc sets the pre-filter cutoff of voice v in Hz.
func (e *Engine) SetPreFilterFc(v int, hz float64) error {
	return e.SetPreFilter(v, FilterFc, hz)
}

// SetPreFilterRq sets the pre-filter reciprocal Q of voice v.
func (e *Engine) SetPreFilterRq(v int, rq float64) error {
	return e.SetPreFilter(v, FilterRQ, rq)
}

// SetPreFilterLP sets the pre-filter lowpass weight of voice v.
func (e *Engine) SetPreFilterLP(v int, w float64) error {
	return e.SetPreFilter(v, FilterLP, w)
}

// SetPreFilterHP sets the pre-filter highpass weight of voice v.
func (e *Engine) SetPreFilterHP(v int, w float64) error {
	return e.SetPreFilter(v, FilterHP, w)
}

// SetPreFilterBP sets the pre-filter bandpass weight of voice v.
func (e *Engine) SetPreFilterBP(v int, w float64) error {
	return e.SetPreFilter(v, FilterBP, w)
}

// SetPreFilterBR sets the pre-filter band-reject weight of voice v.
func (e *Engine) SetPreFilterBR(v int, w float64) error {
	return e.SetPreFilter(v, FilterBR, w)
}

// SetPreFilterDry sets the pre-filter dry weight of voice v.
func (e *Engine) SetPreFilterDry(v int, w float64) error {
	return e.SetPreFilter(v, FilterDry, w)
}

// SetPreFilterFcMod sets how strongly slow rates lower the pre-filter cutoff.
func (e *Engine) SetPreFilterFcMod(v int, depth float64) error {
	return e.SetPreFilter(v, FilterFcMod, depth)
}

// SetPostFilterFc sets the post-filter cutoff of voice v in Hz.
func (e *Engine) SetPostFilterFc(v int, hz float64) error {
	return e.SetPostFilter(v, FilterFc, hz)
}

// SetPostFilterRq sets the post-filter reciprocal Q of voice v.
func (e *Engine) SetPostFilterRq(v int, rq float64) error {
	return e.SetPostFilter(v, FilterRQ, rq)
}

// SetPostFilterLP sets the post-filter lowpass weight of voice v.
func (e *Engine) SetPostFilterLP(v int, w float64) error {
	return e.SetPostFilter(v, FilterLP, w)
}

// SetPostFilterHP sets the post-filter highpass weight of voice v.
func (e *Engine) SetPostFilterHP(v int, w float64) error {
	return e.SetPostFilter(v, FilterHP, w)
}

// SetPostFilterBP sets the post-filter bandpass weight of voice v.
func (e *Engine) SetPostFilterBP(v int, w float64) error {
	return e.SetPostFilter(v, FilterBP, w)
}

// SetPostFilterBR sets the post-filter band-reject weight of voice v.
func (e *Engine) SetPostFilterBR(v int, w float64) error {
	return e.SetPostFilter(v, FilterBR, w)
}

// SetPostFilterDry sets the post-filter dry weight of voice v.
func (e *Engine) SetPostFilterDry(v int, w float64) error {
	return e.SetPostFilter(v, FilterDry, w)
}

// SetRecOffset displaces the write head of voice v from its read head. See Voice.SetRecOffset.
func (e *Engine) SetRecOffset(v int, seconds float64) error {
	return e.apply(v, func(vc *Voice) { vc.SetRecOffset(seconds) })
}

// SetRecPreSlewTime sets the level smoothing time of voice v. See Voice.SetRecPreSlewTime.
func (e *Engine) SetRecPreSlewTime(v int, seconds float64) error {
	return e.apply(v, func(vc *Voice) { vc.SetRecPreSlewTime(seconds) })
}

// SetRateSlewTime sets the rate smoothing time of voice v. See Voice.SetRateSlewTime.
func (e *Engine) SetRateSlewTime(v int, seconds float64) error {
	return e.apply(v, func(vc *Voice) { vc.SetRateSlewTime(seconds) })
}

// SetPhaseQuant sets the phase quantum of voice v in seconds. See Voice.SetPhaseQuant.
func (e *Engine) SetPhaseQuant(v int, seconds float64) error {
	return e.apply(v, func(vc *Voice) { vc.SetPhaseQuant(seconds) })
}

// SetPhaseOffset shifts the reported phase of voice v. See Voice.SetPhaseOffset.
func (e *Engine) SetPhaseOffset(v int, seconds float64) error {
	return e.apply(v, func(vc *Voice) { vc.SetPhaseOffset(seconds) })
}

// QuantPhase returns the quantized phase of voice v. See Voice.QuantPhase.
func (e *Engine) QuantPhase(v int) float64 {
	if vc := e.Voice(v); vc != nil {
		return vc.QuantPhase()
	}
	return 0
}

// PhaseChanged reports and clears a phase change on voice v. See Voice.PhaseChanged.
func (e *Engine) PhaseChanged(v int) bool {
	if vc := e.Voice(v); vc != nil {
		return vc.PhaseChanged()
	}
	return false
}

// RecFlag reports whether voice v is recording.
func (e *Engine) RecFlag(v int) bool {
	if vc := e.Voice(v); vc != nil {
		return vc.RecFlag()
	}
	return false
}

// PlayFlag reports whether voice v is playing.
func (e *Engine) PlayFlag(v int) bool {
	if vc := e.Voice(v); vc != nil {
		return vc.PlayFlag()
	}
	return false
}

// SavedPosition returns the head position of voice v in seconds as of its
// last processed block.
func (e *Engine) SavedPosition(v int) float64 {
	if vc := e.Voice(v); vc != nil {
		return vc.SavedPosition()
	}
	return 0
}

// State returns the transport state of voice v.
func (e *Engine) State(v int) State {
	if vc := e.Voice(v); vc != nil {
		return vc.State()
	}
	return StateIdle
}

// Warnings drains the warnings raised by voice v.
func (e *Engine) Warnings(v int) Warning {
	if vc := e.Voice(v); vc != nil {
		return vc.Warnings()
	}
	return 0
}
