package cliconfig

// MergeConfig merges source config into target, updating sources tracking.
// Only non-zero values from source are applied, except for keys listed in
// source.SetFields, which are applied even when zero.
func MergeConfig(target, source *CLIConfig, sourceType string) {
	if source == nil {
		return
	}
	if target.Sources == nil {
		target.Sources = make(map[string]string)
	}

	mergeString := func(key string, dst *string, v string) {
		if v != "" || isSet(source, key) {
			*dst = v
			target.Sources[key] = sourceType
		}
	}
	mergeString("apiUrl", &target.APIURL, source.APIURL)
	mergeString("viewerUrl", &target.ViewerURL, source.ViewerURL)
	mergeString("logLevel", &target.LogLevel, source.LogLevel)
	mergeString("logFormat", &target.LogFormat, source.LogFormat)
	mergeString("logFile", &target.LogFile, source.LogFile)
	mergeString("output", &target.Output, source.Output)

	if source.Timeout != 0 || isSet(source, "timeout") {
		target.Timeout = source.Timeout
		target.Sources["timeout"] = sourceType
	}

	// For booleans, checking `if source.X` cannot detect an explicit false.
	// SetFields (populated during file loading) tells whether the key was
	// present. Without SetFields only true is merged.
	if isSet(source, "prefetchEndpoints") || (source.SetFields == nil && source.PrefetchEndpoints) {
		target.PrefetchEndpoints = source.PrefetchEndpoints
		target.Sources["prefetchEndpoints"] = sourceType
	}

	if source.ConfigFile != "" {
		target.ConfigFile = source.ConfigFile
	}
}

func isSet(cfg *CLIConfig, yamlKey string) bool {
	return cfg.SetFields[yamlKey]
}
