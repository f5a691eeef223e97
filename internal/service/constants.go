package service

// DefaultKustomizeBin is the manifest-editing tool looked up on PATH
const DefaultKustomizeBin = "kustomize"
