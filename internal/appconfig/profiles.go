package appconfig

// Profile holds per-AWS-profile overrides.
type Profile struct {
	// AssumeRole is recorded for display only; credentials are resolved by
	// the AWS SDK.
	AssumeRole string `toml:"assume_role,omitempty" yaml:"assume_role,omitempty"`
	Region     string `toml:"region,omitempty" yaml:"region,omitempty"`
}

func mergeProfiles(a, b map[string]Profile) map[string]Profile {
	if len(a) == 0 && len(b) == 0 {
		return nil
	}
	out := make(map[string]Profile, len(a)+len(b))
	for name, p := range a {
		out[name] = p
	}
	for name, p := range b {
		cur := out[name]
		if p.AssumeRole != "" {
			cur.AssumeRole = p.AssumeRole
		}
		if p.Region != "" {
			cur.Region = p.Region
		}
		out[name] = cur
	}
	return out
}

func mergeAliases(a, b map[string]string) map[string]string {
	if len(a) == 0 && len(b) == 0 {
		return nil
	}
	out := make(map[string]string, len(a)+len(b))
	for alias, group := range a {
		out[alias] = group
	}
	for alias, group := range b {
		out[alias] = group
	}
	return out
}
