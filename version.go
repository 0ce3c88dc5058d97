package askpablos

// Version is the library semantic version.
const Version = "0.1.0"
