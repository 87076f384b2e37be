package priv

import (
	"errors"
	"fmt"
	"strings"
)

// ErrRecordRejected reports a record the channel's admission rule refused.
var ErrRecordRejected = errors.New("priv: record rejected by admission rule")

// AdmissionError captures guard metadata alongside the originating error.
type AdmissionError struct {
	Engine  string
	Rule    string
	Channel string
	Err     error
}

func (e *AdmissionError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("priv: %s guard %s channel=%s: %v", e.Engine, describeRule(e.Rule), e.Channel, e.Err)
}

func (e *AdmissionError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func describeRule(rule string) string {
	if rule == "" {
		return "rule=<empty>"
	}
	return fmt.Sprintf("rule=%q", rule)
}

func wrapGuardError(engine string, err error) error {
	if err == nil {
		return nil
	}

	var admErr *AdmissionError
	if errors.As(err, &admErr) {
		return err
	}

	if strings.HasPrefix(err.Error(), "priv:") {
		return err
	}
	return fmt.Errorf("priv: %s guard: %w", engine, err)
}

func wrapAdmissionError(engine, rule, channel string, err error) error {
	if err == nil {
		return nil
	}

	var admErr *AdmissionError
	if errors.As(err, &admErr) {
		if admErr.Engine == "" {
			admErr.Engine = engine
		}
		if admErr.Rule == "" {
			admErr.Rule = rule
		}
		if admErr.Channel == "" {
			admErr.Channel = channel
		}
		return err
	}

	return &AdmissionError{
		Engine:  engine,
		Rule:    rule,
		Channel: channel,
		Err:     err,
	}
}
