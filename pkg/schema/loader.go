package schema

import (
	"os"

	"github.com/nikogura/cv-customizer/pkg/apperr"
)

// Load reads a resume record file and coerces it with the given coercer.
// A nil coercer means NewCoercer().
func Load(path string, c *Coercer) (rec Record, err error) {
	if c == nil {
		c = NewCoercer()
	}

	var data []byte
	data, err = os.ReadFile(path)
	if err != nil {
		err = apperr.Wrapf(apperr.InputRead, err, "failed to read resume data: %s", path)
		return rec, err
	}

	rec, err = c.Coerce(string(data))
	if err != nil {
		err = apperr.Wrapf(apperr.Schema, err, "invalid resume data: %s", path)
		return rec, err
	}

	return rec, err
}
