// Package auth guards the HTTP surface.
//
// [Verifier] turns an Authorization header into a [models.Principal] or a structured [*Error].
// Bad signatures, malformed payloads and expired tokens all collapse to one cause so clients cannot tell them apart.
// [CheckOwnership] is the only authorization rule: the caller must own the resource.
//
// [Issuer] signs HS256 tokens whose subject is a user ID. [Service] registers accounts and logs them in,
// hashing passwords with bcrypt.
//
// The resolved principal travels through [context.Context] via [ContextWithPrincipal] and [PrincipalFromContext].
package auth
