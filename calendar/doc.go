/*
Copyright (c) Facebook, Inc. and its affiliates.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

/*
Package calendar implements the pure date/time arithmetic the rest of the
library is built on: conversion between the three supported epochs (1900,
1970 and 2000), proleptic Gregorian calendar math, and the conversion
between absolute time and broken-down calendar fields.

Everything here is stateless and does no I/O. The package deliberately does
not use the standard library time.Time for its representation: devices this
library targets count seconds from their own epoch, and the conversions must
stay exact and invertible over the full signed 64-bit second range.
*/
package calendar
