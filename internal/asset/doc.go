// Package asset resolves layer and asset entries against catalog templates
// and dispatches assets to materializers through a fixed capability table.
//
// RESOLUTION: an entry naming a config_def inherits the template's keys;
// the entry's own keys override them. Resolution is where configuration is
// validated: an unknown template or fetch type fails here, never later
// inside a materializer.
//
// DISPATCH: the fetch type set is closed. The registry maps each type to
// exactly one handler and consults nothing else at dispatch time.
package asset
