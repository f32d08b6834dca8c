package changelog

// InitialTemplate is written when a repository has no changelog yet.
const InitialTemplate = `# Changelog

All notable changes to this project will be documented in this file.

The format is based on [Keep a Changelog](https://keepachangelog.com/en/1.0.0/),
and this project adheres to [Semantic Versioning](https://semver.org/spec/v2.0.0.html).

## Unreleased

`

// DefaultFileName is the conventional changelog location at the repository root.
const DefaultFileName = "CHANGELOG.md"
