// Package entrytasks holds the default handlers run for every entry.
package entrytasks

import "git.home.luguber.info/inful/sitekicker/internal/site/models"

// RegisterDefaults registers the built-in entry handlers. The responsive
// handlers replace the plain image copy when responsive is set.
func RegisterDefaults(hooks *models.EntryHooks, responsive bool) {
	hooks.MustRegister(models.StagePreCompile, "resolve-inlined-files", ResolveInlinedFiles)
	hooks.MustRegister(models.StageCompile, "compile-markdown", CompileMarkdown)
	hooks.MustRegister(models.StagePostCompile, "resolve-linked-files", ResolveLinkedFiles)
	hooks.MustRegister(models.StagePostCompile, "resolve-images", ResolveImages)
	if responsive {
		hooks.MustRegister(models.StagePostCompile, "rewrite-responsive-images", RewriteResponsiveImages)
	}
	hooks.MustRegister(models.StagePostCompile, "meta-tags", SetupMetaTags)
	hooks.MustRegister(models.StageLink, "link-entry", LinkEntry)
	hooks.MustRegister(models.StagePostLink, "write-output", WriteOutput)
	hooks.MustRegister(models.StagePostLink, "copy-files", CopyFiles)
	if responsive {
		hooks.MustRegister(models.StagePostLink, "process-responsive-images", ProcessResponsiveImages)
	} else {
		hooks.MustRegister(models.StagePostLink, "copy-images", CopyImages)
	}
	hooks.MustRegister(models.StagePostLink, "summary", Summary)
}
