package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"
)

var durationType = reflect.TypeOf(time.Duration(0))

// envLookup returns the value of an environment variable and whether it is set.
type envLookup func(key string) (string, bool)

// loadFromEnv overlays ACROSSFC_* environment variables onto cfg.
func loadFromEnv(cfg *Config) error {
	return decodeEnv(reflect.ValueOf(cfg).Elem(), os.LookupEnv)
}

// decodeEnv walks a struct and assigns every field whose env tag names a
// non-empty variable. Nested structs are walked with the same lookup.
func decodeEnv(v reflect.Value, lookup envLookup) error {
	if v.Kind() != reflect.Struct {
		return fmt.Errorf("expected struct, got %s", v.Kind())
	}
	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		field, sf := v.Field(i), t.Field(i)
		if !sf.IsExported() {
			continue
		}
		if field.Kind() == reflect.Struct && sf.Type != durationType {
			if err := decodeEnv(field, lookup); err != nil {
				return err
			}
			continue
		}
		key := sf.Tag.Get("env")
		if key == "" {
			continue
		}
		raw, ok := lookup(key)
		if !ok || raw == "" {
			continue
		}
		if err := assignEnv(field, raw); err != nil {
			return fmt.Errorf("env %s: %w", key, err)
		}
	}
	return nil
}

func assignEnv(field reflect.Value, raw string) error {
	if field.Type() == durationType {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("invalid duration %q", raw)
		}
		field.SetInt(int64(d))
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(raw)
	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("invalid boolean %q", raw)
		}
		field.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, field.Type().Bits())
		if err != nil {
			return fmt.Errorf("invalid integer %q", raw)
		}
		field.SetInt(n)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(strings.TrimSpace(raw), field.Type().Bits())
		if err != nil {
			return fmt.Errorf("invalid number %q", raw)
		}
		field.SetFloat(f)
	case reflect.Slice:
		return assignList(field, raw)
	case reflect.Map:
		return assignPairs(field, raw)
	default:
		return fmt.Errorf("unsupported field kind %s", field.Kind())
	}
	return nil
}

// assignList fills a []string or []int from a comma separated list.
func assignList(field reflect.Value, raw string) error {
	parts := splitList(raw)
	list := reflect.MakeSlice(field.Type(), len(parts), len(parts))
	for i, p := range parts {
		elem := list.Index(i)
		switch elem.Kind() {
		case reflect.String:
			elem.SetString(p)
		case reflect.Int, reflect.Int32, reflect.Int64:
			n, err := strconv.ParseInt(p, 10, elem.Type().Bits())
			if err != nil {
				return fmt.Errorf("invalid integer %q in list", p)
			}
			elem.SetInt(n)
		default:
			return fmt.Errorf("unsupported list element %s", elem.Kind())
		}
	}
	field.Set(list)
	return nil
}

// assignPairs fills a map[string]string from key=value,key2=value2.
func assignPairs(field reflect.Value, raw string) error {
	if field.Type().Key().Kind() != reflect.String || field.Type().Elem().Kind() != reflect.String {
		return fmt.Errorf("unsupported map type %s", field.Type())
	}
	m := reflect.MakeMap(field.Type())
	for _, p := range splitList(raw) {
		k, val, ok := strings.Cut(p, "=")
		if !ok || k == "" {
			return fmt.Errorf("invalid pair %q, want key=value", p)
		}
		m.SetMapIndex(reflect.ValueOf(k), reflect.ValueOf(val))
	}
	field.Set(m)
	return nil
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
