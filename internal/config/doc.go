// Package config loads the optional project file (regen.hcl) that records a
// repository's regeneration settings, so contributors do not have to repeat
// the same flags on every run. Values from the command line always win over
// the file; merging is done by the cli package.
//
// The file is plain HCL. Expressions are evaluated with the variable `root`
// (absolute directory holding the file) and the function `env(name)`:
//
//	gir_path              = "${root}/gir/target/release/gir"
//	gir_files_directories = ["${root}/gir-files", env("GIR_EXTRA")]
//	doc_root              = "docs"
//	jobs                  = 4
package config
