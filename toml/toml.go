// Package toml loads fixed province and commune lists from TOML files
// using github.com/pelletier/go-toml/v2.
//
// A list file holds one [[province]] table per province, each optionally
// followed by [[province.commune]] tables:
//
//	[[province]]
//	code = "83"
//	name = "Vĩnh Long"
//
//	  [[province.commune]]
//	  code = "29242"
//	  name = "Phường 1"
//
// Provinces without communes have their communes discovered while crawling.
package toml

import (
	"bytes"
	"errors"
	"os"
	"strings"

	"github.com/fwojciec/sapnhap"
	"github.com/pelletier/go-toml/v2"
)

type listFile struct {
	Provinces []provinceEntry `toml:"province"`
}

type provinceEntry struct {
	Code     string      `toml:"code"`
	Name     string      `toml:"name"`
	Communes []unitEntry `toml:"commune"`
}

type unitEntry struct {
	Code string `toml:"code"`
	Name string `toml:"name"`
}

// LoadKnownList reads the known list at path.
func LoadKnownList(path string) ([]sapnhap.KnownProvince, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, sapnhap.Errorf(sapnhap.ENOTFOUND, "known list %s not found", path)
	} else if err != nil {
		return nil, err
	}
	return ParseKnownList(data)
}

// ParseKnownList decodes a known list. Unknown keys, missing codes and
// duplicate codes are rejected.
func ParseKnownList(data []byte) ([]sapnhap.KnownProvince, error) {
	var f listFile
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&f); err != nil {
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			row, col := derr.Position()
			return nil, sapnhap.Errorf(sapnhap.EINVALID, "known list line %d column %d: %s", row, col, derr.Error())
		}
		var serr *toml.StrictMissingError
		if errors.As(err, &serr) {
			return nil, sapnhap.Errorf(sapnhap.EINVALID, "known list has unknown keys: %s", strings.TrimSpace(serr.String()))
		}
		return nil, sapnhap.Errorf(sapnhap.EINVALID, "known list: %v", err)
	}
	if len(f.Provinces) == 0 {
		return nil, sapnhap.Errorf(sapnhap.EINVALID, "known list has no provinces")
	}

	provinces := make([]sapnhap.KnownProvince, 0, len(f.Provinces))
	seen := make(map[string]bool)
	for _, p := range f.Provinces {
		kp := sapnhap.KnownProvince{AdministrativeUnit: sapnhap.AdministrativeUnit{
			Code:  strings.TrimSpace(p.Code),
			Name:  strings.TrimSpace(p.Name),
			Level: sapnhap.LevelProvince,
		}}
		if err := kp.Validate(); err != nil {
			return nil, err
		}
		if seen[kp.Code] {
			return nil, sapnhap.Errorf(sapnhap.EINVALID, "duplicate province code %q", kp.Code)
		}
		seen[kp.Code] = true

		communes := make(map[string]bool)
		for _, c := range p.Communes {
			u := sapnhap.AdministrativeUnit{
				Code:       strings.TrimSpace(c.Code),
				Name:       strings.TrimSpace(c.Name),
				Level:      sapnhap.LevelCommune,
				ParentCode: kp.Code,
			}
			if err := u.Validate(); err != nil {
				return nil, err
			}
			if communes[u.Code] {
				return nil, sapnhap.Errorf(sapnhap.EINVALID, "duplicate commune code %q in province %q", u.Code, kp.Code)
			}
			communes[u.Code] = true
			kp.Communes = append(kp.Communes, u)
		}
		provinces = append(provinces, kp)
	}
	return provinces, nil
}
