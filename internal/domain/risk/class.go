package risk

import "fmt"

// Class is a risk tier predicted by the classifier.
type Class int

// Risk tiers, matching the classifier's class ids.
const (
	Low Class = iota
	Medium
	High
)

// NumClasses is the size of the probability simplex.
const NumClasses = 3

var (
	labels     = [NumClasses]string{"Low Risk", "Medium Risk", "High Risk"}
	indicators = [NumClasses]string{"✅", "⚠️", "❌"}
)

// ClassFromID maps a classifier class id to a Class.
func ClassFromID(id int) (Class, error) {
	if id < int(Low) || id > int(High) {
		return 0, fmt.Errorf("%w: predicted class %d outside {0,1,2}", ErrClassifierContract, id)
	}
	return Class(id), nil
}

// ClassFromLabel maps a human label such as "High Risk" back to a Class.
func ClassFromLabel(label string) (Class, error) {
	for i, l := range labels {
		if l == label {
			return Class(i), nil
		}
	}
	return 0, fmt.Errorf("unknown risk label %q", label)
}

// String returns the human label, e.g. "Medium Risk".
func (c Class) String() string {
	if c < Low || c > High {
		return fmt.Sprintf("Class(%d)", int(c))
	}
	return labels[c]
}

// Indicator returns the visual tag for the tier.
func (c Class) Indicator() string {
	if c < Low || c > High {
		return ""
	}
	return indicators[c]
}

// MarshalText encodes the class as its label.
func (c Class) MarshalText() ([]byte, error) {
	if c < Low || c > High {
		return nil, fmt.Errorf("invalid risk class %d", int(c))
	}
	return []byte(labels[c]), nil
}

// UnmarshalText decodes a label produced by MarshalText.
func (c *Class) UnmarshalText(b []byte) error {
	v, err := ClassFromLabel(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}
