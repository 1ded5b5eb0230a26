package types

// Version is the canonical project version.
// All surfaces (CLI, report schema, adapter event payloads) share this
// version per the lockstep versioning policy.
const Version = "0.4.2"
