package browser

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/playwright-community/playwright-go"
)

// Cookie is one entry of an exported cookies JSON file.
type Cookie struct {
	Name     string  `json:"name"`
	Value    string  `json:"value"`
	Domain   string  `json:"domain"`
	Path     string  `json:"path"`
	Expires  float64 `json:"expires"`
	HTTPOnly bool    `json:"httpOnly"`
	Secure   bool    `json:"secure"`
	SameSite string  `json:"sameSite"`
}

// LoadCookies reads cookies from a JSON file, or from every *.json file when path is a directory.
// A missing path yields no cookies.
func LoadCookies(path string) ([]Cookie, error) {
	if path == "" {
		return nil, nil
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("stat cookies path: %w", err)
	}

	files := []string{path}
	if info.IsDir() {
		files, err = filepath.Glob(filepath.Join(path, "*.json"))
		if err != nil {
			return nil, fmt.Errorf("glob cookies dir: %w", err)
		}
	}

	var all []Cookie
	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", f, err)
		}
		var cookies []Cookie
		if err := json.Unmarshal(data, &cookies); err != nil {
			return nil, fmt.Errorf("parse %s: %w", f, err)
		}
		all = append(all, cookies...)
	}
	return all, nil
}

// ToPlaywright converts the cookie for BrowserContext.AddCookies.
func (c Cookie) ToPlaywright() playwright.OptionalCookie {
	pc := playwright.OptionalCookie{
		Name:  c.Name,
		Value: c.Value,
	}
	if c.Domain != "" {
		pc.Domain = playwright.String(c.Domain)
	}
	if c.Path != "" {
		pc.Path = playwright.String(c.Path)
	}
	if c.Expires > 0 {
		pc.Expires = playwright.Float(c.Expires)
	}
	if c.HTTPOnly {
		pc.HttpOnly = playwright.Bool(true)
	}
	if c.Secure {
		pc.Secure = playwright.Bool(true)
	}

	switch c.SameSite {
	case "Lax", "lax":
		pc.SameSite = playwright.SameSiteAttributeLax
	case "Strict", "strict":
		pc.SameSite = playwright.SameSiteAttributeStrict
	case "None", "no_restriction":
		pc.SameSite = playwright.SameSiteAttributeNone
	}
	return pc
}
