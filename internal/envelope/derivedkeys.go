package envelope

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
)

// DerivedKeys are the public parameters needed to repeat a decryption.
// Version 1 carries only IV; version 2 carries all four fields.
type DerivedKeys struct {
	Version      int    `json:"version"`
	IV           string `json:"iv"`
	PasscodeSalt string `json:"passcode_salt,omitempty"`
	PreKeySalt   string `json:"pre_key_salt,omitempty"`
	EncrKeySalt  string `json:"encr_key_salt,omitempty"`
}

// String serialises the derived keys in their stored form: a bare IV for
// version 1 and a JSON object for later versions.
func (d DerivedKeys) String() string {
	if d.Version == VersionLegacyCBC {
		return d.IV
	}
	b, err := json.Marshal(d)
	if err != nil {
		// string and int fields only
		panic(err)
	}
	return string(b)
}

var errNotStructured = errors.New("not a structured record")

// ParseDerivedKeys reads stored derived keys in two steps. A JSON object is
// parsed strictly as a version 2 record and any defect in it is an
// ErrInvalidDerivedKeys. Anything that is not a JSON object takes the legacy
// branch and is read as a version 1 bare IV.
func ParseDerivedKeys(serialized string) (DerivedKeys, error) {
	if strings.TrimSpace(serialized) == "" {
		return DerivedKeys{}, fmt.Errorf("%w: empty", ErrInvalidDerivedKeys)
	}

	d, err := parseStructured(serialized)
	if errors.Is(err, errNotStructured) {
		return parseLegacyIV(serialized), nil
	}
	return d, err
}

func parseStructured(serialized string) (DerivedKeys, error) {
	if !strings.HasPrefix(strings.TrimSpace(serialized), "{") {
		return DerivedKeys{}, errNotStructured
	}

	var raw struct {
		Version      *int    `json:"version"`
		IV           *string `json:"iv"`
		PasscodeSalt *string `json:"passcode_salt"`
		PreKeySalt   *string `json:"pre_key_salt"`
		EncrKeySalt  *string `json:"encr_key_salt"`
	}
	if err := json.Unmarshal([]byte(serialized), &raw); err != nil {
		return DerivedKeys{}, fmt.Errorf("%w: %v", ErrInvalidDerivedKeys, err)
	}

	var missing []string
	if raw.Version == nil {
		missing = append(missing, "version")
	}
	for name, v := range map[string]*string{
		"iv":            raw.IV,
		"passcode_salt": raw.PasscodeSalt,
		"pre_key_salt":  raw.PreKeySalt,
		"encr_key_salt": raw.EncrKeySalt,
	} {
		if v == nil || *v == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		slices.Sort(missing)
		return DerivedKeys{}, fmt.Errorf("%w: missing %s", ErrInvalidDerivedKeys, strings.Join(missing, ", "))
	}
	if *raw.Version <= VersionLegacyCBC {
		return DerivedKeys{}, fmt.Errorf("%w: structured record with version %d", ErrInvalidDerivedKeys, *raw.Version)
	}

	return DerivedKeys{
		Version:      *raw.Version,
		IV:           *raw.IV,
		PasscodeSalt: *raw.PasscodeSalt,
		PreKeySalt:   *raw.PreKeySalt,
		EncrKeySalt:  *raw.EncrKeySalt,
	}, nil
}

// parseLegacyIV is the compatibility branch for entries written before
// derived keys were structured: the whole string is the hex IV.
func parseLegacyIV(serialized string) DerivedKeys {
	return DerivedKeys{Version: VersionLegacyCBC, IV: serialized}
}
