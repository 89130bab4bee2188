package technique

import "fmt"

// Skill gates which techniques a performer may draw on. The levels form a
// total order; a technique is eligible when its minimum skill is at or
// below the configured level.
type Skill int

const (
	SkillBasic Skill = iota
	SkillAdvanced
	SkillVirtuoso
	SkillSuperhuman
)

var skillNames = [...]string{"basic", "advanced", "virtuoso", "superhuman"}

func (s Skill) String() string {
	if s < SkillBasic || s > SkillSuperhuman {
		return fmt.Sprintf("skill(%d)", int(s))
	}
	return skillNames[s]
}

// Valid reports whether s is a defined level.
func (s Skill) Valid() bool { return s >= SkillBasic && s <= SkillSuperhuman }

// Allows reports whether a technique requiring min is eligible at level s.
func (s Skill) Allows(min Skill) bool { return min <= s }

// ParseSkill maps a config string to a Skill.
func ParseSkill(name string) (Skill, error) {
	for i, n := range skillNames {
		if n == name {
			return Skill(i), nil
		}
	}
	return SkillBasic, fmt.Errorf("unknown skill level %q", name)
}
