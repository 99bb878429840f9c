package handlers

// Version is reported in the manifest.
const Version = "1.0.0"
