package state

import (
	"fmt"
	"time"

	"github.com/KasumiMercury/primind-wellness-reminder/internal/domain"
)

// Update is a partial state change keyed by wire field names. Nested maps
// patch nested structures; absent keys leave current values untouched.
type Update map[string]any

// mergeReminderState applies upd on top of cur and returns the result.
// Unknown keys and type mismatches reject the whole update.
func mergeReminderState(cur domain.ReminderState, upd Update) (domain.ReminderState, error) {
	out := cur.Clone()
	for key, raw := range upd {
		switch key {
		case "is_active":
			v, ok := asBool(raw)
			if !ok {
				return cur, fieldTypeErr(key, raw)
			}
			out.IsActive = v
		case "is_paused":
			v, ok := asBool(raw)
			if !ok {
				return cur, fieldTypeErr(key, raw)
			}
			out.IsPaused = v
		case "time_remaining_ms":
			v, ok := asInt64(raw)
			if !ok {
				return cur, fieldTypeErr(key, raw)
			}
			out.TimeRemaining = time.Duration(v) * time.Millisecond
		case "next_reminder_at":
			v, ok := asTime(raw)
			if !ok {
				return cur, fieldTypeErr(key, raw)
			}
			out.NextReminderAt = v
		case "settings":
			nested, ok := raw.(map[string]any)
			if !ok {
				if u, isUpd := raw.(Update); isUpd {
					nested = map[string]any(u)
				} else {
					return cur, fieldTypeErr(key, raw)
				}
			}
			merged, err := mergeSettings(out.Settings, nested)
			if err != nil {
				return cur, err
			}
			out.Settings = merged
		default:
			return cur, fmt.Errorf("%w: %q", domain.ErrUnknownField, key)
		}
	}
	return out, nil
}

func mergeSettings(cur domain.ReminderSettings, upd map[string]any) (domain.ReminderSettings, error) {
	out := cur
	for key, raw := range upd {
		switch key {
		case "interval_minutes":
			v, ok := asFloat64(raw)
			if !ok {
				return cur, fieldTypeErr("settings.interval_minutes", raw)
			}
			out.IntervalMinutes = v
		case "enabled":
			v, ok := asBool(raw)
			if !ok {
				return cur, fieldTypeErr("settings.enabled", raw)
			}
			out.Enabled = v
		case "sound_enabled":
			v, ok := asBool(raw)
			if !ok {
				return cur, fieldTypeErr("settings.sound_enabled", raw)
			}
			out.SoundEnabled = v
		case "last_reminder_at":
			if raw == nil {
				out.LastReminderAt = nil
				continue
			}
			v, ok := asTime(raw)
			if !ok {
				return cur, fieldTypeErr("settings.last_reminder_at", raw)
			}
			out.LastReminderAt = &v
		default:
			return cur, fmt.Errorf("%w: %q", domain.ErrUnknownField, "settings."+key)
		}
	}
	return out, nil
}

// mergeAppState applies upd on top of cur. NotificationPrefs is merged as
// an open map; the remaining fields follow the fixed schema.
func mergeAppState(cur domain.AppState, upd Update) (domain.AppState, error) {
	out := cur.Clone()
	for key, raw := range upd {
		switch key {
		case "is_first_use":
			v, ok := asBool(raw)
			if !ok {
				return cur, fieldTypeErr(key, raw)
			}
			out.IsFirstUse = v
		case "compatibility_checked":
			v, ok := asBool(raw)
			if !ok {
				return cur, fieldTypeErr(key, raw)
			}
			out.CompatibilityChecked = v
		case "last_activity_at":
			v, ok := asTime(raw)
			if !ok {
				return cur, fieldTypeErr(key, raw)
			}
			out.LastActivityAt = v
		case "notification_prefs":
			nested, ok := raw.(map[string]any)
			if !ok {
				return cur, fieldTypeErr(key, raw)
			}
			if out.NotificationPrefs == nil {
				out.NotificationPrefs = make(map[string]any)
			}
			mergeOpenMap(out.NotificationPrefs, nested)
		default:
			return cur, fmt.Errorf("%w: %q", domain.ErrUnknownField, key)
		}
	}
	return out, nil
}

// mergeOpenMap deep-merges src into dst: nested maps merge recursively,
// everything else replaces.
func mergeOpenMap(dst, src map[string]any) {
	for k, v := range src {
		srcNested, srcIsMap := v.(map[string]any)
		dstNested, dstIsMap := dst[k].(map[string]any)
		if srcIsMap && dstIsMap {
			mergeOpenMap(dstNested, srcNested)
			continue
		}
		dst[k] = v
	}
}

func fieldTypeErr(key string, raw any) error {
	return fmt.Errorf("%w: %q (%T)", domain.ErrInvalidFieldType, key, raw)
}

func asBool(raw any) (bool, bool) {
	v, ok := raw.(bool)
	return v, ok
}

func asFloat64(raw any) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}

func asInt64(raw any) (int64, bool) {
	switch v := raw.(type) {
	case int:
		return int64(v), true
	case int64:
		return v, true
	case float64:
		return int64(v), true
	}
	return 0, false
}

// asTime accepts either a time.Time or an epoch-millisecond number, the
// form JSON clients send.
func asTime(raw any) (time.Time, bool) {
	switch v := raw.(type) {
	case time.Time:
		return v, true
	case int64:
		return time.UnixMilli(v), true
	case int:
		return time.UnixMilli(int64(v)), true
	case float64:
		return time.UnixMilli(int64(v)), true
	}
	return time.Time{}, false
}
