package buffer

import "errors"

var (
	// ErrPoolExhausted is returned by FetchPage and NewPage when no free
	// frame exists and every resident page is pinned. Callers may retry
	// after releasing pins.
	ErrPoolExhausted = errors.New("buffer pool exhausted: every frame is pinned")

	// ErrPageNotResident is returned when the requested page does not
	// currently occupy any frame.
	ErrPageNotResident = errors.New("page is not resident in the buffer pool")

	// ErrPageNotPinned is returned by UnpinPage when the page has no
	// outstanding pins; it signals more unpins than fetches.
	ErrPageNotPinned = errors.New("page has no outstanding pins")

	// ErrPagePinned is returned by DeletePage when the page is still in
	// use; the caller must wait for the pin to be released and retry.
	ErrPagePinned = errors.New("page is pinned")

	// ErrInvalidPageID is returned when an operation is given the invalid
	// page id sentinel.
	ErrInvalidPageID = errors.New("invalid page id")
)
