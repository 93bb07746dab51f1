package models

// RulesStorageKey is the single storage key holding the whole rule list.
const RulesStorageKey = "urlPatterns"
