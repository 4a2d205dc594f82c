// Package session is the single source of truth for who is signed in.
//
// A Manager starts in the Bootstrapping phase and moves to Ready exactly once,
// after Bootstrap has checked the stored credential against /users/me (or
// found none). From then on the session is either authenticated (a user
// record is present) or anonymous.
//
// Transitions:
//
//   - Bootstrap: no credential -> Ready, no request. Credential accepted ->
//     Ready with the user. Any failure -> credential cleared, Ready anonymous.
//   - Login / Register: one request; the token and user come from the same
//     response. The token is persisted before the user is set. On failure the
//     session is unchanged.
//   - Logout / Expire: clear user and credential, no request, never fail.
//   - UpdateProfile / UploadPhoto: the user is replaced wholesale with the
//     server's record; on failure it is left alone.
//
// Readers never see the Manager's fields directly. Snapshot returns a copy and
// Subscribe delivers a copy after every change.
//
// Operations return nil or an error whose Error() is a reason suitable for
// display; use failure.KindOf to tell validation problems from server or
// transport failures. Nothing is retried.
package session
