package skyship

// Version is the skyship library version.
const Version = "0.1.0"
